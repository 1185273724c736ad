package core

// OpenAI object type constants
const (
	ModelObjectType     = "model"
	ModelOwner          = "imagebot"
	ModelListObjectType = "list"
)

// DefaultAllowedModels is the built-in allow-list used when no allow-list file is configured.
var DefaultAllowedModels = []string{
	"flux-schnell",
	"flux-dev",
	"flux-pro",
	"sdxl",
	"sd3-medium",
	"dall-e-3",
	"gpt-image-1",
}
