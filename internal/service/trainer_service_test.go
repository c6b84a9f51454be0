package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
	appErrors "github.com/bildungsinstitut/kursverwaltung/pkg/errors"
)

type fakeTrainerRepo struct {
	trainers map[int64]*models.Trainer
	nextID   int64
}

func newFakeTrainerRepo() *fakeTrainerRepo {
	return &fakeTrainerRepo{trainers: map[int64]*models.Trainer{}}
}

func (f *fakeTrainerRepo) detail(t *models.Trainer) *models.TrainerDetail {
	return &models.TrainerDetail{Trainer: *t, DepartmentName: "Languages"}
}

func (f *fakeTrainerRepo) List(_ context.Context) ([]models.TrainerDetail, error) {
	var trainers []models.TrainerDetail
	for _, t := range f.trainers {
		if t.Active {
			trainers = append(trainers, *f.detail(t))
		}
	}
	return trainers, nil
}

func (f *fakeTrainerRepo) FindByID(_ context.Context, id int64) (*models.TrainerDetail, error) {
	if t, ok := f.trainers[id]; ok {
		return f.detail(t), nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTrainerRepo) ListAvailable(_ context.Context) ([]models.TrainerDetail, error) {
	var trainers []models.TrainerDetail
	for _, t := range f.trainers {
		if t.Active && t.Status == models.TrainerStatusAvailable {
			trainers = append(trainers, *f.detail(t))
		}
	}
	return trainers, nil
}

func (f *fakeTrainerRepo) ListByDepartment(_ context.Context, departmentID int64) ([]models.TrainerDetail, error) {
	var trainers []models.TrainerDetail
	for _, t := range f.trainers {
		if t.Active && t.DepartmentID == departmentID {
			trainers = append(trainers, *f.detail(t))
		}
	}
	return trainers, nil
}

func (f *fakeTrainerRepo) Create(_ context.Context, trainer *models.Trainer) error {
	f.nextID++
	trainer.ID = f.nextID
	cp := *trainer
	f.trainers[trainer.ID] = &cp
	return nil
}

func (f *fakeTrainerRepo) Update(_ context.Context, trainer *models.Trainer) error {
	if _, ok := f.trainers[trainer.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *trainer
	f.trainers[trainer.ID] = &cp
	return nil
}

func (f *fakeTrainerRepo) Deactivate(_ context.Context, id int64) error {
	t, ok := f.trainers[id]
	if !ok {
		return sql.ErrNoRows
	}
	t.Active = false
	return nil
}

type fakeDepartmentReader struct{}

func (fakeDepartmentReader) FindByID(_ context.Context, id int64) (*models.Department, error) {
	if id == 1 {
		return &models.Department{ID: 1, Name: "Languages", Active: true}, nil
	}
	return nil, sql.ErrNoRows
}

func newTrainerFixture() (*TrainerService, *fakeTrainerRepo) {
	repo := newFakeTrainerRepo()
	return NewTrainerService(repo, fakeDepartmentReader{}, nil, nil), repo
}

func TestTrainerServiceCreateDefaultsStatus(t *testing.T) {
	svc, _ := newTrainerFixture()

	trainer, err := svc.Create(context.Background(), TrainerRequest{
		FirstName: "Eva", LastName: "Lang", DepartmentID: 1,
	})
	require.NoError(t, err)
	require.Equal(t, models.TrainerStatusAvailable, trainer.Status)
	require.True(t, trainer.Active)
}

func TestTrainerServiceCreateUnknownDepartment(t *testing.T) {
	svc, _ := newTrainerFixture()

	_, err := svc.Create(context.Background(), TrainerRequest{
		FirstName: "Eva", LastName: "Lang", DepartmentID: 99,
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTrainerServiceUpdateStatus(t *testing.T) {
	svc, _ := newTrainerFixture()
	ctx := context.Background()

	trainer, err := svc.Create(ctx, TrainerRequest{FirstName: "Eva", LastName: "Lang", DepartmentID: 1})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, trainer.ID, models.TrainerStatusDeployed)
	require.NoError(t, err)
	require.Equal(t, models.TrainerStatusDeployed, updated.Status)

	available, err := svc.ListAvailable(ctx)
	require.NoError(t, err)
	require.Empty(t, available)

	_, err = svc.UpdateStatus(ctx, trainer.ID, models.TrainerStatus("retired"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
