// Comfymeta recovers the human-authored positive and negative prompts that
// ComfyUI embeds in the PNG files it renders.  The prompt text is not stored
// as a flat field; it lives inside the serialized API-format workflow in the
// image's tEXt metadata, spread across text-encode, concat and wildcard
// nodes.  Comfymeta parses the PNG container, decodes the workflow and walks
// the producer edges back to the original text, and provides the client and
// widget glue needed to surface the result in an image-loading UI node.
package comfymeta
