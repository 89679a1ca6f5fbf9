// Package testutil provides helpers to seed repositories in tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/romangrishanov/ditado/core/category"
	"github.com/romangrishanov/ditado/core/classroom"
	"github.com/romangrishanov/ditado/core/dictation"
	"github.com/romangrishanov/ditado/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, username, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	if len(createdAt) > 0 {
		now = createdAt[0].UTC().Truncate(time.Microsecond)
	}

	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Username:  username,
		Email:     email,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser(): %v", err)
		}
	}

	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

// CreateDictation parses text and stores the dictation with deterministic
// segment IDs ("<id>-seg-<n>") so tests can address blanks directly.
func CreateDictation(
	t *testing.T,
	repo dictation.Repository,
	title, text, authorID, authorName string,
	isActive bool,
) dictation.Dictation {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	d := dictation.Dictation{
		ID:         uuid.New().String(),
		Title:      title,
		IsActive:   isActive,
		AuthorID:   authorID,
		AuthorName: authorName,
		Segments:   dictation.ParseText(text),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for i := range d.Segments {
		d.Segments[i].ID = fmt.Sprintf("%s-seg-%d", d.ID, i+1)
		d.Segments[i].DictationID = d.ID
	}

	d, err := repo.CreateDictation(context.Background(), d)
	if err != nil {
		t.Fatalf("CreateDictation(): %v", err)
	}
	return d
}

func CreateCategory(t *testing.T, repo category.Repository, name string) category.Category {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	cat, err := repo.CreateCategory(context.Background(), category.Category{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCategory(): %v", err)
	}
	return cat
}

func CreateClassroom(
	t *testing.T,
	repo classroom.Repository,
	name, teacherID, teacherName string,
	studentIDs ...string,
) classroom.Classroom {
	t.Helper()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	cls, err := repo.CreateClassroom(ctx, classroom.Classroom{
		ID:          uuid.New().String(),
		Name:        name,
		IsActive:    true,
		TeacherID:   teacherID,
		TeacherName: teacherName,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateClassroom(): %v", err)
	}
	for _, sid := range studentIDs {
		if err = repo.AddStudent(ctx, cls.ID, sid); err != nil {
			t.Fatalf("CreateClassroom(): %v", err)
		}
	}
	cls.StudentIDs = studentIDs
	return cls
}
