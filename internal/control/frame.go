package control

import (
	"errors"
	"fmt"

	"github.com/Faultbox/moment-oit/internal/gpu"
	"github.com/Faultbox/moment-oit/internal/shader"
)

// Scene is the geometry drawn each frame. Transparent geometry is drawn for
// the shadow, gather and resolve passes; opaque geometry once, receiving
// the moment shadows.
type Scene interface {
	DrawOpaque(rc shader.RenderContext) error
	DrawTransparent(rc shader.RenderContext) error
}

// DefaultBackground is the clear color of the opaque pass.
var DefaultBackground = [4]float32{0.09, 0.1, 0.12, 1}

// Frame renders one frame into rc.Target and then applies any settings or
// size change requested while it was drawing.
func (c *Controller) Frame(rc shader.RenderContext, scene Scene) error {
	c.BeginFrame()
	err := c.frame(rc, scene)
	return errors.Join(err, c.EndFrame())
}

func (c *Controller) frame(rc shader.RenderContext, scene Scene) error {
	if c.settings.ShadowsEnabled {
		if err := c.shadow.CreateShadowMapPass(scene.DrawTransparent); err != nil {
			return err
		}
	}
	if err := c.opaque(rc, scene.DrawOpaque); err != nil {
		return err
	}
	return c.oit.Render(rc, scene.DrawTransparent)
}

// opaque clears the target and draws solid geometry with depth writes on.
func (c *Controller) opaque(rc shader.RenderContext, draw shader.DrawFunc) error {
	prog, err := c.Program(shader.Opaque)
	if err != nil {
		return fmt.Errorf("opaque pass: %w", err)
	}
	defer gpu.Save(c.dev)()

	w, h := c.oit.Storage().Size()
	s := gpu.DefaultMasks(c.dev.State())
	s.Framebuffer = rc.Target
	s.Viewport = [4]int32{0, 0, int32(w), int32(h)}
	s.Blend = false
	s.DepthTest = true
	s.StencilTest = false
	c.dev.Apply(s)
	c.dev.ClearColor(c.background)
	c.dev.ClearDepth()

	rc.Pass = shader.Opaque
	rc.PreRender = false
	rc.Program = prog
	c.dev.UseProgram(prog)
	shader.SetCamera(c.dev, rc)
	if c.settings.ShadowsEnabled {
		c.shadow.BindForScene(prog)
	}
	if err := draw(rc); err != nil {
		return fmt.Errorf("opaque pass: %w", err)
	}
	return nil
}

// SetBackground changes the opaque clear color.
func (c *Controller) SetBackground(color [4]float32) {
	c.background = color
}
