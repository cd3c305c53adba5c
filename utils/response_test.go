package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"lifeloop/model"

	"github.com/gin-gonic/gin"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{model.NotFound("x"), http.StatusNotFound},
		{model.ErrNotOwner, http.StatusForbidden},
		{model.ErrNothingToUndo, http.StatusConflict},
		{model.ErrValidation, http.StatusBadRequest},
		{model.ErrPartialBatchFailure, http.StatusMultiStatus},
		{fmt.Errorf("wrapped: %w", model.ErrPeriodRolled), http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestErrorResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		data       []interface{}
		wantStatus int
		wantCode   string
		wantReason string
		wantError  string
	}{
		{
			name:       "engine error",
			err:        model.NewError(model.KindInvalidStateTransition, model.ReasonPeriodRolled, "t1", "period has already rolled over"),
			wantStatus: http.StatusConflict,
			wantCode:   "INVALID_STATE_TRANSITION",
			wantReason: "PERIOD_ROLLED",
			wantError:  "period has already rolled over",
		},
		{
			name:       "infrastructure error is hidden",
			err:        errors.New("dial tcp: refused"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Internal server error",
		},
		{
			name:       "partial failure keeps the summary",
			err:        model.ErrPartialBatchFailure,
			data:       []interface{}{map[string]int{"items_failed": 1}},
			wantStatus: http.StatusMultiStatus,
			wantCode:   "PARTIAL_BATCH_FAILURE",
			wantError:  "batch finished with failures",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

			Error(c, tt.err, tt.data...)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("Failed to parse response: %v", err)
			}
			if code, _ := body["code"].(string); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
			if reason, _ := body["reason"].(string); reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", reason, tt.wantReason)
			}
			if msg, _ := body["error"].(string); msg != tt.wantError {
				t.Errorf("error = %q, want %q", msg, tt.wantError)
			}
			if len(tt.data) > 0 && body["data"] == nil {
				t.Error("expected data to be included")
			}
		})
	}
}

func TestValidateItem(t *testing.T) {
	valid := func() *model.RecurringItem {
		return &model.RecurringItem{ItemID: "a", UserID: "u", Kind: model.KindTask, Frequency: model.FrequencyDaily}
	}

	tests := []struct {
		name       string
		mutate     func(*model.RecurringItem)
		wantReason string
	}{
		{"valid", func(*model.RecurringItem) {}, ""},
		{"unknown frequency", func(i *model.RecurringItem) { i.Frequency = "HOURLY" }, model.ReasonInvalidItem},
		{"unknown kind", func(i *model.RecurringItem) { i.Kind = "chore" }, model.ReasonInvalidItem},
		{"negative streak", func(i *model.RecurringItem) { i.Streaks.Weekly = -1 }, model.ReasonNegativeStreak},
		{"habit without amounts", func(i *model.RecurringItem) { i.Kind = model.KindHabit }, model.ReasonInvalidItem},
		{"habit with zero target", func(i *model.RecurringItem) {
			i.Kind = model.KindHabit
			i.Habit = &model.HabitPayload{}
		}, model.ReasonInvalidItem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := valid()
			tt.mutate(item)
			err := ValidateItem(item)
			if tt.wantReason == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if model.KindOf(err) != model.KindValidation || model.ReasonOf(err) != tt.wantReason {
				t.Errorf("got %v, want VALIDATION_ERROR/%s", err, tt.wantReason)
			}
		})
	}
}
