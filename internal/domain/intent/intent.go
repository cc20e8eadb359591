// Package intent defines the classified query intents the engine routes on.
package intent

// Intent is a classified user intent, produced by the upstream classifier.
type Intent string

// Supported intents.
const (
	ProductSearch      Intent = "product_search"
	Troubleshooting    Intent = "troubleshooting"
	Installation       Intent = "installation"
	CompatibilityCheck Intent = "compatibility_check"
	ReviewComparison   Intent = "review_comparison"
	GeneralHelp        Intent = "general_help"
)

// IsValid checks if the intent is one of the supported values.
func (i Intent) IsValid() bool {
	switch i {
	case ProductSearch, Troubleshooting, Installation,
		CompatibilityCheck, ReviewComparison, GeneralHelp:
		return true
	}
	return false
}
