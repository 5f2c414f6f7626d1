// Package gpu is the thin webgpu adapter for the lighting core: device
// bootstrap, the shadow atlas texture, and upload of packed frame buffers.
// All algorithmic work stays in the root package so it is testable without a
// GPU device.
package gpu

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// NewWindow initializes GLFW and opens a window suitable for a wgpu surface.
// Must be called from the main goroutine; the OS thread stays locked for the
// window's lifetime.
func NewWindow(width, height int, title string) (*glfw.Window, error) {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to init glfw: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Important: tell GLFW we don't want OpenGL
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	return win, nil
}

// Context bundles the wgpu handles the adapter needs. It is passed into
// per-frame calls explicitly rather than captured by the lighting system.
type Context struct {
	Surface *wgpu.Surface
	Adapter *wgpu.Adapter
	Device  *wgpu.Device
	Queue   *wgpu.Queue
}

// NewWindowContext wraps a GLFW window into a wgpu surface and acquires a
// device and queue, preferring a discrete GPU.
func NewWindowContext(win *glfw.Window) (*Context, error) {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(win))
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Lighting Device",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request device: %w", err)
	}

	return &Context{
		Surface: surface,
		Adapter: adapter,
		Device:  device,
		Queue:   device.GetQueue(),
	}, nil
}

// Release drops the wgpu handles in reverse acquisition order.
func (c *Context) Release() {
	if c.Device != nil {
		c.Device.Release()
		c.Device = nil
	}
	if c.Adapter != nil {
		c.Adapter.Release()
		c.Adapter = nil
	}
	if c.Surface != nil {
		c.Surface.Release()
		c.Surface = nil
	}
}
