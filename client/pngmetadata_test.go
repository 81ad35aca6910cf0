package client

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunk(ctype string, data []byte) []byte {
	buf := make([]byte, 0, 12+len(data))
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	buf = append(buf, length[:]...)
	buf = append(buf, ctype...)
	buf = append(buf, data...)
	// the CRC is skipped unvalidated, zeros will do
	buf = append(buf, 0, 0, 0, 0)
	return buf
}

func textChunk(ctype, keyword, value string) []byte {
	payload := append([]byte(keyword), 0)
	payload = append(payload, value...)
	return chunk(ctype, payload)
}

func buildPNG(chunks ...[]byte) []byte {
	buf := append([]byte{}, pngSignature...)
	for _, c := range chunks {
		buf = append(buf, c...)
	}
	return buf
}

func TestParsePNGMetadata(t *testing.T) {
	png := buildPNG(
		chunk("IHDR", make([]byte, 13)),
		textChunk("tEXt", "prompt", `{"1": {}}`),
		textChunk("iTXt", "workflow", `{"nodes": []}`),
		chunk("IDAT", []byte{1, 2, 3}),
		chunk("IEND", nil),
	)

	metadata, err := ParsePNGMetadata(png)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"prompt":   `{"1": {}}`,
		"workflow": `{"nodes": []}`,
	}, metadata)
}

func TestParsePNGMetadataBadSignature(t *testing.T) {
	_, err := ParsePNGMetadata([]byte("GIF89a_not_a_png"))
	assert.ErrorIs(t, err, ErrNotPNG)

	// shorter than the signature itself
	_, err = ParsePNGMetadata([]byte{137, 80, 78})
	assert.ErrorIs(t, err, ErrNotPNG)

	_, err = ParsePNGMetadata(nil)
	assert.ErrorIs(t, err, ErrNotPNG)
}

func TestParsePNGMetadataDuplicateKeywordLastWins(t *testing.T) {
	png := buildPNG(
		textChunk("tEXt", "prompt", "first"),
		textChunk("tEXt", "prompt", "second"),
		chunk("IEND", nil),
	)

	metadata, err := ParsePNGMetadata(png)
	require.NoError(t, err)
	assert.Equal(t, "second", metadata["prompt"])
}

func TestParsePNGMetadataStopsAtIEND(t *testing.T) {
	png := buildPNG(
		textChunk("tEXt", "before", "kept"),
		chunk("IEND", nil),
		textChunk("tEXt", "after", "dropped"),
	)

	metadata, err := ParsePNGMetadata(png)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"before": "kept"}, metadata)
}

func TestParsePNGMetadataToleratesTrailingGarbage(t *testing.T) {
	png := buildPNG(textChunk("tEXt", "prompt", "value"))
	// bytes that do not form a complete chunk header
	png = append(png, 0xde, 0xad, 0xbe)

	metadata, err := ParsePNGMetadata(png)
	require.NoError(t, err)
	assert.Equal(t, "value", metadata["prompt"])
}

func TestParsePNGMetadataTruncatedTextChunk(t *testing.T) {
	png := buildPNG(textChunk("tEXt", "prompt", "value"))
	// chop the payload short of its declared length
	png = png[:len(png)-8]

	_, err := ParsePNGMetadata(png)
	assert.Error(t, err)
}

func TestParsePNGMetadataChunkWithoutKeywordSeparator(t *testing.T) {
	png := buildPNG(
		chunk("tEXt", []byte("no separator here")),
		textChunk("tEXt", "prompt", "value"),
		chunk("IEND", nil),
	)

	metadata, err := ParsePNGMetadata(png)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"prompt": "value"}, metadata)
}

func TestParsePNGMetadataIdempotent(t *testing.T) {
	png := buildPNG(
		textChunk("tEXt", "prompt", "value"),
		chunk("IEND", nil),
	)

	first, err := ParsePNGMetadata(png)
	require.NoError(t, err)
	second, err := ParsePNGMetadata(png)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPromptsFromPNGData(t *testing.T) {
	workflow := `{
		"3": {"class_type": "KSampler", "inputs": {"positive": ["1", 0], "negative": ["2", 0], "denoise": NaN}},
		"1": {"class_type": "CLIPTextEncode", "inputs": {"text": "cat"}},
		"2": {"class_type": "CLIPTextEncode", "inputs": {"text": "dog"}}
	}`
	png := buildPNG(
		chunk("IHDR", make([]byte, 13)),
		textChunk("tEXt", "prompt", workflow),
		chunk("IEND", nil),
	)

	prompts, err := PromptsFromPNGData(png)
	require.NoError(t, err)
	assert.Equal(t, "cat", prompts.Positive)
	assert.Equal(t, "dog", prompts.Negative)
}

func TestPromptsFromPNGDataWithoutPromptEntry(t *testing.T) {
	png := buildPNG(
		textChunk("tEXt", "workflow", "{}"),
		chunk("IEND", nil),
	)

	_, err := PromptsFromPNGData(png)
	assert.ErrorIs(t, err, ErrNoPromptMetadata)
}
