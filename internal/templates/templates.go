// Package templates carries the theme files the app installs into a shop's
// online store theme. The liquid bodies embed a placeholder that is replaced
// with the merchant's vendor activation key at upload time.
package templates

import (
	"embed"
	"strings"
)

//go:embed files/*
var files embed.FS

const keyPlaceholder = "__TRILLION_ACTIVATION_KEY__"

// Theme file locations inside the shop's theme.
const (
	TryOnTemplateFilename = "templates/page.trillion-tryon.liquid"
	ViewerSnippetFilename = "snippets/trillion-viewer.liquid"
	ViewerAssetFilename   = "assets/product-model.js"
)

// Page constants for the try-on landing page.
const (
	PageTitle          = "Trillion Try-on"
	PageHandle         = "trillion-tryon"
	PageTemplateSuffix = "trillion-tryon"
)

func mustRead(name string) string {
	b, err := files.ReadFile("files/" + name)
	if err != nil {
		panic("templates: missing embedded file " + name)
	}
	return string(b)
}

// TryOnTemplate returns the full-screen try-on page template with the vendor
// key baked in.
func TryOnTemplate(apiKey string) string {
	return strings.ReplaceAll(mustRead("page.trillion-tryon.liquid"), keyPlaceholder, apiKey)
}

// ViewerSnippet returns the product-page 3D viewer snippet with the vendor
// key baked in.
func ViewerSnippet(apiKey string) string {
	return strings.ReplaceAll(mustRead("trillion-viewer.liquid"), keyPlaceholder, apiKey)
}

// ViewerAsset returns the product-model web component script. It carries no
// per-shop state.
func ViewerAsset() string {
	return mustRead("product-model.js")
}
