package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
	appErrors "github.com/bildungsinstitut/kursverwaltung/pkg/errors"
)

type fakeStudentRepo struct {
	students    map[int64]*models.Student
	nextID      int64
	nameSearch  string
	emailSearch string
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{students: map[int64]*models.Student{}}
}

func (f *fakeStudentRepo) List(_ context.Context) ([]models.Student, error) {
	var students []models.Student
	for _, s := range f.students {
		if s.Active {
			students = append(students, *s)
		}
	}
	return students, nil
}

func (f *fakeStudentRepo) FindByID(_ context.Context, id int64) (*models.Student, error) {
	if s, ok := f.students[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) SearchByName(_ context.Context, name string) ([]models.Student, error) {
	f.nameSearch = name
	return nil, nil
}

func (f *fakeStudentRepo) SearchByEmail(_ context.Context, email string) ([]models.Student, error) {
	f.emailSearch = email
	return nil, nil
}

func (f *fakeStudentRepo) Create(_ context.Context, student *models.Student) error {
	f.nextID++
	student.ID = f.nextID
	cp := *student
	f.students[student.ID] = &cp
	return nil
}

func (f *fakeStudentRepo) Update(_ context.Context, student *models.Student) error {
	if _, ok := f.students[student.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *student
	f.students[student.ID] = &cp
	return nil
}

func (f *fakeStudentRepo) Deactivate(_ context.Context, id int64) error {
	s, ok := f.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.Active = false
	return nil
}

func TestStudentServiceCreateDefaults(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := NewStudentService(repo, nil, nil)

	student, err := svc.Create(context.Background(), StudentRequest{FirstName: "Anna", LastName: "Meier"})
	require.NoError(t, err)
	require.NotZero(t, student.ID)
	require.True(t, student.Active)
	require.False(t, student.RegistrationDate.IsZero())
}

func TestStudentServiceCreateInvalidGender(t *testing.T) {
	svc := NewStudentService(newFakeStudentRepo(), nil, nil)

	gender := "x"
	_, err := svc.Create(context.Background(), StudentRequest{FirstName: "Anna", LastName: "Meier", Gender: &gender})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceSearchRouting(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := NewStudentService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Search(ctx, "  anna@example.com ")
	require.NoError(t, err)
	require.Equal(t, "anna@example.com", repo.emailSearch)

	_, err = svc.Search(ctx, "Meier")
	require.NoError(t, err)
	require.Equal(t, "Meier", repo.nameSearch)

	_, err = svc.Search(ctx, "   ")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceDelete(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := NewStudentService(repo, nil, nil)
	ctx := context.Background()

	student, err := svc.Create(ctx, StudentRequest{FirstName: "Anna", LastName: "Meier"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, student.ID))
	require.False(t, repo.students[student.ID].Active)

	err = svc.Delete(ctx, 999)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
