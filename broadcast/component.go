package broadcast

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/streamkit/component"
)

const componentName = "broadcast"

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component runs a Hub for the lifetime of the application.
type Component struct {
	hub  *Hub
	path string
	wg   sync.WaitGroup
}

// NewComponent creates a component with a fresh hub served at path.
func NewComponent(path string) *Component {
	return &Component{hub: NewHub(), path: path}
}

// Hub returns the managed hub.
func (c *Component) Hub() *Hub { return c.hub }

// Name implements component.Component.
func (c *Component) Name() string { return componentName }

// Start runs the hub loop in the background.
func (c *Component) Start(context.Context) error {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.hub.Run()
	}()
	return nil
}

// Stop disconnects every client and waits for the loop to exit.
func (c *Component) Stop(context.Context) error {
	c.hub.Stop()
	c.wg.Wait()
	return nil
}

// Health implements component.Component.
func (c *Component) Health(context.Context) component.Health {
	return component.Health{
		Name:    componentName,
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d clients connected", c.hub.ClientCount()),
	}
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	return component.Description{Name: "Notice Stream", Type: "stream", Details: "path " + c.path}
}
