package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"WildVoice/internal/models"
	"WildVoice/pkg/errors"
	"WildVoice/pkg/logger"
	"WildVoice/pkg/search"
)

// SearchResult 检索结果，带回源后的实体
type SearchResult struct {
	Voices  []models.Voice  `json:"voices"`
	Outputs []models.Output `json:"outputs"`
}

// Search 全文检索当前用户可见的声音和输出记录
func (s *Service) Search(ctx context.Context, user *models.User, query string, limit int) (*SearchResult, error) {
	if user == nil {
		return nil, errors.WithCode(errors.CodeUnauthorized, "Unauthorized")
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.WithCode(errors.CodeValidation, "Search query is required")
	}
	if s.search == nil {
		return &SearchResult{}, nil
	}

	hits, err := s.search.Search(ctx, user.ID, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "search failed")
	}

	result := &SearchResult{}
	for _, hit := range hits {
		var id uint
		switch hit.Kind {
		case search.KindVoice:
			if _, err := fmt.Sscanf(hit.ID, "voice:%d", &id); err != nil {
				continue
			}
			voice, err := models.GetVoiceByID(s.db, id)
			if err != nil {
				continue
			}
			result.Voices = append(result.Voices, *voice)
		case search.KindOutput:
			if _, err := fmt.Sscanf(hit.ID, "output:%d", &id); err != nil {
				continue
			}
			var output models.Output
			if err := s.db.First(&output, id).Error; err != nil {
				continue
			}
			result.Outputs = append(result.Outputs, output)
		}
	}
	return result, nil
}

// 索引写入是尽力而为的，失败只记日志
func (s *Service) indexVoice(ctx context.Context, voice *models.Voice) {
	if s.search == nil {
		return
	}
	var userID uint
	if voice.UserID != nil {
		userID = *voice.UserID
	}
	err := s.search.Index(ctx, search.Doc{
		ID:        fmt.Sprintf("voice:%d", voice.ID),
		Kind:      search.KindVoice,
		UserID:    userID,
		Public:    voice.IsPublic,
		Title:     voice.Name,
		Text:      voice.Category,
		CreatedAt: voice.CreatedAt,
	})
	if err != nil {
		logger.Warn("index voice failed", zap.Uint("voiceId", voice.ID), zap.Error(err))
	}
}

func (s *Service) indexOutput(ctx context.Context, output *models.Output) {
	if s.search == nil {
		return
	}
	err := s.search.Index(ctx, search.Doc{
		ID:        fmt.Sprintf("output:%d", output.ID),
		Kind:      search.KindOutput,
		UserID:    output.UserID,
		Text:      output.InputText,
		CreatedAt: output.CreatedAt,
	})
	if err != nil {
		logger.Warn("index output failed", zap.Uint("outputId", output.ID), zap.Error(err))
	}
}
