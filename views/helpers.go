package views

import (
	"context"
	"io"

	"github.com/AdamBeresnev/beerpong/internal/middleware"
	users "github.com/AdamBeresnev/beerpong/internal/user"
	"github.com/a-h/templ"
)

func GetUser(ctx context.Context) *users.User {
	return middleware.GetAuthenticatedUser(ctx)
}

// htmlWriter keeps the first write error so components can write piece by
// piece and check once at the end.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

// text writes s escaped. It is safe for element bodies and quoted attributes.
func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) component(ctx context.Context, c templ.Component) {
	if h.err == nil {
		h.err = c.Render(ctx, h.w)
	}
}
