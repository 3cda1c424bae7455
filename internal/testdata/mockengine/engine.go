package mockengine

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Alkira-Consulting/skylight-web/internal/model"
	"github.com/Alkira-Consulting/skylight-web/internal/repository"
)

type Engine struct {
	mock.Mock
}

// Interface compliance check
var _ repository.EngineRepository = &Engine{}

func (m *Engine) Info(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *Engine) Search(ctx context.Context, index string, body map[string]any) (*model.SearchResult, error) {
	args := m.Called(ctx, index, body)
	res, _ := args.Get(0).(*model.SearchResult)
	return res, args.Error(1)
}

func (m *Engine) SQL(ctx context.Context, query string, filter map[string]any) (*model.TabularResult, error) {
	args := m.Called(ctx, query, filter)
	res, _ := args.Get(0).(*model.TabularResult)
	return res, args.Error(1)
}

// Factory returns a repository.Factory that always hands out the given
// engine, recording the tokens it was asked for.
func Factory(engine repository.EngineRepository, tokens *[]string) repository.Factory {
	return func(accessToken string) (repository.EngineRepository, error) {
		if tokens != nil {
			*tokens = append(*tokens, accessToken)
		}
		return engine, nil
	}
}
