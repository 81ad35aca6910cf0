package client

import (
	"errors"
	"io"
	"log/slog"
)

// LoadImageNode is the glue between a ComfyClient and the widgets of an
// image-loading UI node.  Whenever the image selection changes, the node
// pre-clears both prompt fields, fetches the image from the server and
// writes the extracted prompts back into the fields.  Extraction and I/O
// failures are logged and leave the fields cleared; they never surface to
// the host.
type LoadImageNode struct {
	client   *ComfyClient
	image    *Widget
	positive *Widget
	negative *Widget
}

// DefaultLoadImageWidgets returns the widget set of a load-image node: an
// image selector plus the two prompt text fields.
func DefaultLoadImageWidgets() WidgetSet {
	return WidgetSet{
		&Widget{Name: "image", Type: "image"},
		&Widget{Name: "positive_prompt", Type: "text"},
		&Widget{Name: "negative_prompt", Type: "text"},
	}
}

// NewLoadImageNode wires a client to the host's widgets.  The set must
// contain an image-typed widget and widgets named positive_prompt and
// negative_prompt.  The image widget's change callback is taken over by
// the node.
func NewLoadImageNode(c *ComfyClient, widgets WidgetSet) (*LoadImageNode, error) {
	image := widgets.FindByType("image")
	if image == nil {
		image = widgets.FindByName("image")
	}
	positive := widgets.FindByName("positive_prompt")
	negative := widgets.FindByName("negative_prompt")
	if image == nil || positive == nil || negative == nil {
		return nil, errors.New("widget set is missing the image or prompt widgets")
	}

	n := &LoadImageNode{
		client:   c,
		image:    image,
		positive: positive,
		negative: negative,
	}
	image.Callback = n.onImageChanged
	return n, nil
}

// SelectImage sets the image widget to a named server-side image, which
// triggers extraction of its prompt metadata.
func (n *LoadImageNode) SelectImage(name string) {
	n.image.SetValue(name)
}

// UploadImage uploads image data to the server's input folder and selects
// the name the server assigned, triggering extraction from the stored copy.
func (n *LoadImageNode) UploadImage(r io.Reader, filename string, overwrite bool) (string, error) {
	name, err := n.client.UploadFileFromReader(r, filename, overwrite, InputImageType, "")
	if err != nil {
		slog.Error("Image upload failed", "filename", filename, "error", err)
		return "", err
	}
	n.SelectImage(name)
	return name, nil
}

// Image returns the currently selected image name.
func (n *LoadImageNode) Image() string {
	return n.image.Value()
}

// Positive returns the value of the positive prompt field.
func (n *LoadImageNode) Positive() string {
	return n.positive.Value()
}

// Negative returns the value of the negative prompt field.
func (n *LoadImageNode) Negative() string {
	return n.negative.Value()
}

func (n *LoadImageNode) onImageChanged(name string) {
	// stale prompts must never outlive the image they came from
	n.positive.SetValue("")
	n.negative.SetValue("")

	if name == "" {
		return
	}

	prompts, err := n.client.PromptsFromImage(name)
	if err != nil {
		slog.Error("Prompt extraction failed", "image", name, "error", err)
		return
	}

	// an empty side leaves its pre-cleared field untouched
	if prompts.Positive != "" {
		n.positive.SetValue(prompts.Positive)
	}
	if prompts.Negative != "" {
		n.negative.SetValue(prompts.Negative)
	}
}
