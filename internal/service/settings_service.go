package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tutorkhata/khata_server/internal/model"
)

// SettingsWriter stores an AppSetting so that the next read sees it.
type SettingsWriter interface {
	Set(ctx context.Context, key, value string) error
}

var integerSettings = map[string]bool{
	model.SettingTeacherCapacityPerDay:     true,
	model.SettingMonthlyFreeSMSTokensCount: true,
}

type SettingsService struct {
	writer SettingsWriter
}

func NewSettingsService(writer SettingsWriter) *SettingsService {
	return &SettingsService{writer: writer}
}

func normalizeSetting(key, value string) (string, string, error) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" {
		return "", "", NewValidationError("key", "This field may not be blank.")
	}
	if integerSettings[key] {
		if _, err := strconv.Atoi(value); err != nil {
			return "", "", NewValidationError(key, "A valid integer is required.")
		}
	}
	return key, value, nil
}

// Set stores one setting. Known numeric keys must hold an integer.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	key, value, err := normalizeSetting(key, value)
	if err != nil {
		return err
	}
	return s.writer.Set(ctx, key, value)
}

// ParseAssignments turns "key=value" strings into validated pairs.
func ParseAssignments(assignments []string) ([][2]string, error) {
	pairs := make([][2]string, 0, len(assignments))
	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		if !ok {
			return nil, NewValidationError("setting", fmt.Sprintf("expected key=value, got %q", a))
		}
		key, value, err := normalizeSetting(key, value)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, [2]string{key, value})
	}
	return pairs, nil
}

// Apply stores every assignment, or none when any of them is invalid.
func (s *SettingsService) Apply(ctx context.Context, assignments []string) error {
	pairs, err := ParseAssignments(assignments)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		if err := s.writer.Set(ctx, p[0], p[1]); err != nil {
			return fmt.Errorf("set %s: %w", p[0], err)
		}
	}
	return nil
}
