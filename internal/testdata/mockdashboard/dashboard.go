package mockdashboard

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Alkira-Consulting/skylight-web/internal/model"
)

type Dashboard struct {
	mock.Mock
}

func (m *Dashboard) Render(ctx context.Context, sess *model.Session, in model.RenderInput) (model.RenderResult, error) {
	args := m.Called(ctx, sess, in)
	return args.Get(0).(model.RenderResult), args.Error(1)
}
