package storage

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"envisonet-server-go/internal/platform/errors"
)

// StateRepository persists the per-user pipeline state record.
type StateRepository struct {
	db *gorm.DB
}

func NewStateRepository(db *gorm.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Get returns the state row for the user, creating an empty one on first use.
func (r *StateRepository) Get(ctx context.Context, userID uint) (*UserState, error) {
	var state UserState
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&state).Error
	if err == gorm.ErrRecordNotFound {
		state = UserState{UserID: userID}
		if err := r.db.WithContext(ctx).Create(&state).Error; err != nil {
			return nil, errors.Wrap(errors.KindStorage, "state.get", "failed to create state", err)
		}
		return &state, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "state.get", "failed to load state", err)
	}
	return &state, nil
}

// Save upserts the state row keyed by user id.
func (r *StateRepository) Save(ctx context.Context, state *UserState) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(state).Error
	if err != nil {
		return errors.Wrap(errors.KindStorage, "state.save", "failed to save state", err)
	}
	return nil
}

// ClearFiles empties the file references in the state record, for use
// when the user's staged files have been discarded.
func (r *StateRepository) ClearFiles(ctx context.Context, userID uint) error {
	state, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}
	state.LastImagePath = ""
	state.ResponseAudioPath = ""
	return r.Save(ctx, state)
}

// BumpCounter increments a named usage counter inside the JSON column.
func (r *StateRepository) BumpCounter(ctx context.Context, userID uint, name string) error {
	state, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}

	counters := map[string]int{}
	if len(state.Counters) > 0 {
		if err := json.Unmarshal(state.Counters, &counters); err != nil {
			return errors.Wrap(errors.KindStorage, "state.bump_counter", "failed to decode counters", err)
		}
	}
	counters[name]++

	raw, err := json.Marshal(counters)
	if err != nil {
		return errors.Wrap(errors.KindStorage, "state.bump_counter", "failed to encode counters", err)
	}
	state.Counters = datatypes.JSON(raw)
	return r.Save(ctx, state)
}

// Counters decodes the usage counters for the user.
func (r *StateRepository) Counters(ctx context.Context, userID uint) (map[string]int, error) {
	state, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	counters := map[string]int{}
	if len(state.Counters) > 0 {
		if err := json.Unmarshal(state.Counters, &counters); err != nil {
			return nil, errors.Wrap(errors.KindStorage, "state.counters", "failed to decode counters", err)
		}
	}
	return counters, nil
}
