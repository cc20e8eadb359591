// Package partsearch provides a Go client for the partsearch retrieval API.
//
// The service answers classified appliance-parts queries with a ranked,
// deduplicated result list and keeps short-lived conversation context per
// session so follow-up queries can reuse or refine prior results.
//
//	client, _ := partsearch.New("http://localhost:8080",
//	    partsearch.WithAPIKey("secret"),
//	)
//	resp, _ := client.Query(ctx, partsearch.QueryRequest{
//	    Query:    "ice maker for a side-by-side fridge",
//	    Intent:   "product_search",
//	    Entities: map[string]string{"appliance_type": "refrigerator"},
//	})
package partsearch
