package client

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ComfyClientCallbacks are optional notifications from the client's status
// feed.  ImageSaved fires once per output image when the server finishes a
// render; hosts use it to refresh file lists and re-extract metadata.
type ComfyClientCallbacks struct {
	QueueCountChanged func(*ComfyClient, int)
	ImageSaved        func(*ComfyClient, DataOutput)
}

// ComfyClient is the top level object that allows for interaction with the
// ComfyUI backend
type ComfyClient struct {
	serverBaseAddress string
	serverAddress     string
	serverPort        int
	clientid          string
	initialized       bool
	queuecount        int
	callbacks         *ComfyClientCallbacks
	timeout           int
	httpclient        *http.Client
	webSocket         *WebSocketConnection
}

// NewComfyClientWithTimeout creates a new client with a connection timeout
// in seconds and a maximum retry count for the status feed.
func NewComfyClientWithTimeout(server_address string, server_port int, callbacks *ComfyClientCallbacks, timeout int, retry int) *ComfyClient {
	sbaseaddr := server_address + ":" + strconv.Itoa(server_port)
	cid := uuid.New().String()
	retv := &ComfyClient{
		serverBaseAddress: sbaseaddr,
		serverAddress:     server_address,
		serverPort:        server_port,
		clientid:          cid,
		initialized:       false,
		queuecount:        0,
		callbacks:         callbacks,
		timeout:           timeout,
		httpclient:        &http.Client{},
	}
	retv.webSocket = &WebSocketConnection{
		WebSocketURL:   fmt.Sprintf("ws://%s/ws?clientId=%s", sbaseaddr, cid),
		ConnectionDone: make(chan bool),
		MaxRetry:       retry,
		BaseDelay:      1 * time.Second,
		MaxDelay:       60 * time.Second,
		Dialer:         websocket.Dialer{},
		Callback:       retv,
	}
	return retv
}

// NewComfyClient creates a new instance of a comfymeta client
func NewComfyClient(server_address string, server_port int, callbacks *ComfyClientCallbacks) *ComfyClient {
	return NewComfyClientWithTimeout(server_address, server_port, callbacks, -1, 5)
}

// IsInitialized returns true if the client's websocket is connected and initialized
func (c *ComfyClient) IsInitialized() bool {
	return c.initialized
}

// Init starts the websocket connection to the status feed.
func (c *ComfyClient) Init() error {
	if c.initialized {
		return nil
	}
	err := c.webSocket.ConnectWithManager(c.timeout)
	if err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// CheckConnection tries to initialize the client if it is not already.
func (c *ComfyClient) CheckConnection() error {
	if !c.IsInitialized() {
		err := c.Init()
		if err != nil {
			return err
		}
	}
	return nil
}

// ClientID returns the unique client ID for the connection to the ComfyUI backend
func (c *ComfyClient) ClientID() string {
	return c.clientid
}

// QueueCount returns the last queue size reported by the status feed.
func (c *ComfyClient) QueueCount() int {
	return c.queuecount
}

// return the underlying http client
func (c *ComfyClient) HttpClient() *http.Client {
	return c.httpclient
}

// set the underlying http client
func (c *ComfyClient) SetHttpClient(client *http.Client) {
	c.httpclient = client
}

// OnMessage processes each message received from the websocket connection
// to ComfyUI and translates the ones this client consumes into callbacks.
func (c *ComfyClient) OnMessage(msg string) {
	message := &WSStatusMessage{}
	err := json.Unmarshal([]byte(msg), &message)
	if err != nil {
		slog.Error("Deserializing status message", "error", err)
		return
	}

	switch message.Type {
	case "status":
		s := message.Data.(*WSMessageDataStatus)
		c.queuecount = s.Status.ExecInfo.QueueRemaining
		if c.callbacks != nil && c.callbacks.QueueCountChanged != nil {
			c.callbacks.QueueCountChanged(c, c.queuecount)
		}
	case "executed":
		s := message.Data.(*WSMessageDataExecuted)
		if c.callbacks != nil && c.callbacks.ImageSaved != nil {
			for _, outputs := range s.Output {
				for _, output := range outputs {
					if output.Filename != "" {
						c.callbacks.ImageSaved(c, output)
					}
				}
			}
		}
	default:
		// execution progress messages belong to the rendering engine, not
		// to metadata extraction
	}
}
