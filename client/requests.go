package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/BigStationW/comfymeta/promptapi"
)

type ImageType string

const (
	InputImageType  ImageType = "input"
	TempImageType   ImageType = "temp"
	OutputImageType ImageType = "output"
)

// GetImage retrieves the raw bytes of an image stored on the ComfyUI server.
func (c *ComfyClient) GetImage(image DataOutput) ([]byte, error) {
	params := url.Values{}
	params.Add("filename", image.Filename)
	params.Add("subfolder", image.Subfolder)
	params.Add("type", image.Type)
	resp, err := c.httpclient.Get(fmt.Sprintf("http://%s/view?%s", c.serverBaseAddress, params.Encode()))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error: %d - %s", resp.StatusCode, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// GetInputImage retrieves the bytes of an image in the server's input folder.
func (c *ComfyClient) GetInputImage(name string) ([]byte, error) {
	return c.GetImage(DataOutput{Filename: name, Type: string(InputImageType)})
}

// PromptsFromImage fetches a named input image from the server and extracts
// the prompt pair embedded in its metadata.
func (c *ComfyClient) PromptsFromImage(name string) (promptapi.Prompts, error) {
	data, err := c.GetInputImage(name)
	if err != nil {
		return promptapi.Prompts{}, err
	}
	return PromptsFromPNGData(data)
}

// UploadFileFromReader uploads image data to the ComfyUI server and returns
// the name the server assigned to the stored file.
func (c *ComfyClient) UploadFileFromReader(r io.Reader, filename string, overwrite bool, filetype ImageType, subfolder string) (string, error) {
	// Create a buffer to store the request body
	var requestBody bytes.Buffer

	// Create a multipart writer to wrap the file (like FormData)
	writer := multipart.NewWriter(&requestBody)

	// Create a form-file for the image and copy the image data into it
	formFile, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return "", err
	}
	_, err = io.Copy(formFile, r)
	if err != nil {
		return "", err
	}

	_ = writer.WriteField("overwrite", fmt.Sprintf("%v", overwrite))
	_ = writer.WriteField("type", fmt.Sprintf("%v", filetype))
	if subfolder != "" {
		_ = writer.WriteField("subfolder", fmt.Sprintf("%v", subfolder))
	}

	// Close the writer to finalize the body content
	writer.Close()

	req, err := http.NewRequest("POST", fmt.Sprintf("http://%s/upload/image", c.serverBaseAddress), &requestBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("error: %d - %s", resp.StatusCode, resp.Status)
	}

	// Decode the JSON response
	var data map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", err
	}

	// the server may rename the file, so return the name it chose rather
	// than the one we provided
	name, ok := data["name"].(string)
	if !ok {
		return "", fmt.Errorf("invalid response format")
	}
	return name, nil
}

// UploadFileFromPath uploads an image file to the ComfyUI server.
func (c *ComfyClient) UploadFileFromPath(filePath string, overwrite bool, filetype ImageType, subfolder string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	return c.UploadFileFromReader(file, filepath.Base(filePath), overwrite, filetype, subfolder)
}
