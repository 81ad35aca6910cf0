package client

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/BigStationW/comfymeta/promptapi"
)

var pngSignature = []byte{137, 80, 78, 71, 13, 10, 26, 10}

var (
	ErrNotPNG           = errors.New("not a valid PNG file")
	ErrNoPromptMetadata = errors.New("png does not contain prompt metadata")
)

// ParsePNGMetadata extracts the textual metadata of a PNG buffer as a
// keyword to value mapping.  Only tEXt and iTXt chunks are consumed; their
// payload is UTF-8 of the form keyword\0value, and a later chunk with the
// same keyword overwrites an earlier one.  Chunk CRCs are skipped without
// validation.  The scan ends at the IEND chunk or at the end of the buffer;
// trailing bytes that do not form a complete chunk header are ignored, but
// a text chunk whose declared payload runs past the buffer is an error.
func ParsePNGMetadata(data []byte) (map[string]string, error) {
	if len(data) < 8 || !bytes.Equal(data[:8], pngSignature) {
		return nil, ErrNotPNG
	}

	txtChunks := make(map[string]string)

	offset := 8
	for offset+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[offset : offset+4]))
		chunkType := string(data[offset+4 : offset+8])

		if chunkType == "tEXt" || chunkType == "iTXt" {
			end := offset + 8 + length
			if end > len(data) {
				return nil, errors.New("truncated PNG text chunk")
			}
			chunkData := data[offset+8 : end]
			keywordEnd := bytes.IndexByte(chunkData, 0)
			if keywordEnd != -1 {
				keyword := string(chunkData[:keywordEnd])
				txtChunks[keyword] = string(chunkData[keywordEnd+1:])
			}
		}

		// chunk header + data + CRC
		offset += 8 + length + 4

		if chunkType == "IEND" {
			break
		}
	}

	return txtChunks, nil
}

// GetPNGMetadata reads a full PNG stream and extracts its textual metadata.
func GetPNGMetadata(r io.Reader) (map[string]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParsePNGMetadata(data)
}

// PromptsFromPNGData extracts the positive/negative prompt pair embedded in
// a ComfyUI generated PNG buffer.
func PromptsFromPNGData(data []byte) (promptapi.Prompts, error) {
	metadata, err := ParsePNGMetadata(data)
	if err != nil {
		return promptapi.Prompts{}, err
	}

	raw, ok := metadata["prompt"]
	if !ok {
		return promptapi.Prompts{}, ErrNoPromptMetadata
	}

	graph, err := promptapi.NewPromptGraphFromJSON([]byte(raw))
	if err != nil {
		return promptapi.Prompts{}, err
	}
	return graph.ExtractPrompts(), nil
}

// PromptsFromPNGReader extracts the embedded prompt pair from PNG data read
// from an io.Reader.
func PromptsFromPNGReader(r io.Reader) (promptapi.Prompts, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return promptapi.Prompts{}, err
	}
	return PromptsFromPNGData(data)
}

// PromptsFromPNGFile extracts the embedded prompt pair from a PNG file.
func PromptsFromPNGFile(path string) (promptapi.Prompts, error) {
	file, err := os.Open(path)
	if err != nil {
		return promptapi.Prompts{}, err
	}
	defer file.Close()
	return PromptsFromPNGReader(file)
}
