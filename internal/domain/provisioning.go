package domain

import "fmt"

// Step identifies one remote provisioning step. Step names appear in API
// responses and metric labels, so they are stable identifiers.
type Step string

const (
	StepUploadTemplate      Step = "upload_template"
	StepMetafieldDefinition Step = "metafield_definition"
	StepUploadViewerAsset   Step = "upload_viewer_asset"
	StepUploadViewerSnippet Step = "upload_viewer_snippet"
	StepPatchThemeLayout    Step = "patch_theme_layout"
	StepEnsurePage          Step = "ensure_page"
	StepImportSKUs          Step = "import_skus"
	StepAttachMedia         Step = "attach_media"
)

// StepError reports which provisioning step failed and why. Completed steps are
// safe to re-run (every remote write is an upsert), so the caller retries just
// the failed step.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("provisioning step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// ProvisionReport summarises one orchestrated provisioning run.
type ProvisionReport struct {
	ShopDomain string `json:"shop"`
	Completed  []Step `json:"completed"`
	Failed     Step   `json:"failed,omitempty"`
}

// ItemFailure captures a single product that failed inside a batch operation.
type ItemFailure struct {
	ProductID string `json:"product_id"`
	Reason    string `json:"reason"`
}

// BatchSummary is the outcome of SKU import or media attachment: which products
// were processed, which succeeded, and which were skipped or failed. A per-item
// failure never aborts the batch.
type BatchSummary struct {
	Matched   []string      `json:"matched"`
	Succeeded []string      `json:"succeeded"`
	Failed    []ItemFailure `json:"failed"`
}
