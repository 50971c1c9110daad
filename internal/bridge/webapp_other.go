//go:build !(js && wasm)

package bridge

// WebApp is only available in the web view build.
type WebApp struct{}

// NewWebApp always fails outside the web view build.
func NewWebApp() (*WebApp, error) {
	return nil, ErrUnavailable
}

func (w *WebApp) SendData(string) error { return ErrUnavailable }
func (w *WebApp) Ready()                {}
func (w *WebApp) Expand()               {}
func (w *WebApp) Close()                {}

// LaunchFragment has no page location to read outside the web view build.
func LaunchFragment() string {
	return ""
}
