// Package service implements the stage registry: an ordered, soft-deletable
// catalog of follow-up stages with a linked progression chain and cached
// projections.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"karpet_crm_backend/internal/stages/cache"
	"karpet_crm_backend/internal/stages/repository"
	"karpet_crm_backend/internal/stages/transport"
	"karpet_crm_backend/platform/apperr"
)

const (
	cacheKeyActive      = "stages:active"
	cacheKeyProgression = "stages:progression"
)

// Repository defines the data access the registry needs.
type Repository interface {
	Create(ctx context.Context, params repository.CreateStageParams) (repository.Stage, error)
	GetByKey(ctx context.Context, key string) (repository.Stage, error)
	ListActive(ctx context.Context) ([]repository.Stage, error)
	ListAll(ctx context.Context) ([]repository.Stage, error)
	Update(ctx context.Context, key string, params repository.UpdateStageParams) (repository.Stage, error)
	SoftDelete(ctx context.Context, key string) error
}

// Service is the stage registry.
type Service struct {
	repo  Repository
	cache cache.Cache
}

// New creates a stage registry backed by the given repository and cache.
func New(repo Repository, projections cache.Cache) *Service {
	return &Service{repo: repo, cache: projections}
}

// ActiveStages returns the active stages as an ordered key/name listing,
// served from the projection cache.
func (s *Service) ActiveStages(ctx context.Context) ([]transport.StageOption, error) {
	raw, err := s.cache.GetOrPopulate(ctx, cacheKeyActive, func(ctx context.Context) (string, error) {
		stages, err := s.repo.ListActive(ctx)
		if err != nil {
			return "", err
		}
		options := make([]transport.StageOption, 0, len(stages))
		for _, stage := range stages {
			options = append(options, transport.StageOption{Key: stage.Key, Name: stage.Name})
		}
		data, err := json.Marshal(options)
		if err != nil {
			return "", err
		}
		return string(data), nil
	})
	if err != nil {
		return nil, err
	}

	var options []transport.StageOption
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		return nil, err
	}
	return options, nil
}

// Progression returns the key -> next-key map over active stages that declare
// a successor, served from the projection cache.
func (s *Service) Progression(ctx context.Context) (map[string]string, error) {
	raw, err := s.cache.GetOrPopulate(ctx, cacheKeyProgression, func(ctx context.Context) (string, error) {
		stages, err := s.repo.ListActive(ctx)
		if err != nil {
			return "", err
		}
		progression := make(map[string]string, len(stages))
		for _, stage := range stages {
			if stage.NextStageKey != nil {
				progression[stage.Key] = *stage.NextStageKey
			}
		}
		data, err := json.Marshal(progression)
		if err != nil {
			return "", err
		}
		return string(data), nil
	})
	if err != nil {
		return nil, err
	}

	progression := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &progression); err != nil {
		return nil, err
	}
	return progression, nil
}

// NextStageOf resolves the progression pointer of the given stage.
// Returns nil when the stage has no successor or the successor is inactive.
func (s *Service) NextStageOf(ctx context.Context, key string) (*repository.Stage, error) {
	stage, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("stage %q not found", key))
		}
		return nil, err
	}

	if stage.NextStageKey == nil {
		return nil, nil
	}

	next, err := s.repo.GetByKey(ctx, *stage.NextStageKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !next.IsActive || next.DeletedAt != nil {
		return nil, nil
	}
	return &next, nil
}

// ListAll returns the full non-deleted catalog for the admin view.
func (s *Service) ListAll(ctx context.Context) ([]repository.Stage, error) {
	return s.repo.ListAll(ctx)
}

// Create inserts a new stage. The proposed progression pointer is checked for
// cycles before the write; both cached projections are cleared before return.
func (s *Service) Create(ctx context.Context, req transport.CreateStageRequest) (repository.Stage, error) {
	if req.NextStageKey != nil {
		if err := s.checkNoCycle(ctx, req.Key, *req.NextStageKey); err != nil {
			return repository.Stage{}, err
		}
	}

	stage, err := s.repo.Create(ctx, repository.CreateStageParams{
		Key:          req.Key,
		Name:         req.Name,
		DisplayOrder: req.DisplayOrder,
		NextStageKey: req.NextStageKey,
	})
	if err != nil {
		return repository.Stage{}, err
	}

	if err := s.invalidate(ctx); err != nil {
		return repository.Stage{}, err
	}
	return stage, nil
}

// Update applies a partial update. Cycle creation through next_stage_key is
// rejected; both cached projections are cleared before return.
func (s *Service) Update(ctx context.Context, key string, req transport.UpdateStageRequest) (repository.Stage, error) {
	if req.NextStageKey != nil && *req.NextStageKey != "" {
		if err := s.checkNoCycle(ctx, key, *req.NextStageKey); err != nil {
			return repository.Stage{}, err
		}
	}

	params := repository.UpdateStageParams{
		Name:         req.Name,
		DisplayOrder: req.DisplayOrder,
		IsActive:     req.IsActive,
	}
	if req.NextStageKey != nil {
		if *req.NextStageKey == "" {
			params.ClearNext = true
		} else {
			params.NextStageKey = req.NextStageKey
		}
	}

	stage, err := s.repo.Update(ctx, key, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Stage{}, apperr.NotFound("stage not found")
		}
		return repository.Stage{}, err
	}

	if err := s.invalidate(ctx); err != nil {
		return repository.Stage{}, err
	}
	return stage, nil
}

// Delete soft-deletes a stage and clears both cached projections.
func (s *Service) Delete(ctx context.Context, key string) error {
	if err := s.repo.SoftDelete(ctx, key); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("stage not found")
		}
		return err
	}
	return s.invalidate(ctx)
}

func (s *Service) invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, cacheKeyActive, cacheKeyProgression)
}

// checkNoCycle verifies that pointing fromKey at nextKey keeps the
// progression graph acyclic. The stored chain is walked with the proposed
// edge applied; revisiting any key means the write would close a loop.
func (s *Service) checkNoCycle(ctx context.Context, fromKey, nextKey string) error {
	if fromKey == nextKey {
		return apperr.Validation("a stage cannot progress to itself")
	}

	stages, err := s.repo.ListAll(ctx)
	if err != nil {
		return err
	}

	next := make(map[string]string, len(stages))
	for _, stage := range stages {
		if stage.NextStageKey != nil {
			next[stage.Key] = *stage.NextStageKey
		}
	}
	next[fromKey] = nextKey

	visited := map[string]bool{fromKey: true}
	current := fromKey
	for {
		successor, ok := next[current]
		if !ok {
			return nil
		}
		if visited[successor] {
			return apperr.Validation(
				fmt.Sprintf("setting next stage of %q to %q would create a cycle", fromKey, nextKey))
		}
		visited[successor] = true
		current = successor
	}
}
