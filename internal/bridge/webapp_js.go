//go:build js && wasm

package bridge

import (
	"fmt"
	"syscall/js"
)

// WebApp talks to the chat platform's Mini App object in the page.
type WebApp struct {
	obj js.Value
}

// NewWebApp binds window.Telegram.WebApp.
func NewWebApp() (*WebApp, error) {
	tg := js.Global().Get("Telegram")
	if tg.IsUndefined() || tg.IsNull() {
		return nil, ErrUnavailable
	}
	obj := tg.Get("WebApp")
	if obj.IsUndefined() || obj.IsNull() {
		return nil, ErrUnavailable
	}
	return &WebApp{obj: obj}, nil
}

// SendData implements Messenger.
func (w *WebApp) SendData(data string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sendData failed: %v", r)
		}
	}()
	w.obj.Call("sendData", data)
	return nil
}

func (w *WebApp) Ready()  { w.obj.Call("ready") }
func (w *WebApp) Expand() { w.obj.Call("expand") }
func (w *WebApp) Close()  { w.obj.Call("close") }

// LaunchFragment returns window.location.hash.
func LaunchFragment() string {
	return js.Global().Get("location").Get("hash").String()
}
