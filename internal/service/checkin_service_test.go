package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"mentor-hub/server/config"
	"mentor-hub/server/internal/dto"
	"mentor-hub/server/internal/model"
	"mentor-hub/server/internal/repository"
)

var checkInNow = time.Date(2026, 5, 20, 14, 5, 0, 0, time.UTC)

func setupCheckInService() (*checkInService, *repository.Repository) {
	repo := newMockRepository()
	seedEvent(repo)
	ctx := context.Background()
	repo.EventRegistration.Create(ctx, &model.EventRegistration{RegistrationID: "reg-1", EventID: "ev-1", UserID: "u-1", Status: model.RegistrationRegistered})
	repo.EventRegistration.Create(ctx, &model.EventRegistration{RegistrationID: "reg-2", EventID: "ev-1", UserID: "u-2", Status: model.RegistrationCancelled})

	svc := &checkInService{
		repo:   repo,
		cfg:    &config.CheckInConfig{CodeLength: 8, DefaultValidity: 2 * time.Hour},
		logger: zap.NewNop(),
		now:    func() time.Time { return checkInNow },
	}
	return svc, repo
}

func strPtr(s string) *string { return &s }

func TestGenerateCheckInCode(t *testing.T) {
	for _, tc := range []struct{ in, want int }{{4, 6}, {6, 6}, {10, 10}, {20, 12}} {
		code, err := GenerateCheckInCode(tc.in)
		if err != nil {
			t.Fatalf("生成失败: %v", err)
		}
		if len(code) != tc.want {
			t.Errorf("长度 %d 期望 %d 位，实际 %q", tc.in, tc.want, code)
		}
		for _, c := range code {
			if !strings.ContainsRune(checkInAlphabet, c) {
				t.Errorf("包含非法字符 %q", c)
			}
		}
	}
}

func TestCreateCode_DefaultsAndCustom(t *testing.T) {
	svc, _ := setupCheckInService()
	ctx := context.Background()

	resp, err := svc.CreateCode(ctx, "admin", "ev-1", &dto.CreateCheckInCodeRequest{})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if len(resp.Code) != 8 || !resp.IsActive {
		t.Errorf("随机签到码不符: %+v", resp)
	}
	if resp.ValidUntil != checkInNow.Add(2*time.Hour).Format(time.RFC3339) {
		t.Errorf("默认有效期不符: %s", resp.ValidUntil)
	}

	custom, err := svc.CreateCode(ctx, "admin", "ev-1", &dto.CreateCheckInCodeRequest{Code: strPtr("goshare1")})
	if err != nil {
		t.Fatalf("自定义签到码失败: %v", err)
	}
	if custom.Code != "GOSHARE1" {
		t.Errorf("自定义签到码应转大写，实际 %s", custom.Code)
	}
	if _, err := svc.CreateCode(ctx, "admin", "ev-1", &dto.CreateCheckInCodeRequest{Code: strPtr("GOSHARE1")}); !errors.Is(err, ErrCheckInCodeExists) {
		t.Errorf("重复签到码应失败，实际 %v", err)
	}
	if _, err := svc.CreateCode(ctx, "admin", "ev-1", &dto.CreateCheckInCodeRequest{Code: strPtr("AB-12")}); !errors.Is(err, ErrCheckInCodeFormat) {
		t.Errorf("格式错误应失败，实际 %v", err)
	}
}

func TestCreateCode_InvalidWindow(t *testing.T) {
	svc, _ := setupCheckInService()

	_, err := svc.CreateCode(context.Background(), "admin", "ev-1", &dto.CreateCheckInCodeRequest{
		ValidFrom:  strPtr("2026-05-20T15:00:00Z"),
		ValidUntil: strPtr("2026-05-20T14:00:00Z"),
	})
	if !errors.Is(err, ErrCheckInWindowInvalid) {
		t.Errorf("期望 ErrCheckInWindowInvalid，实际 %v", err)
	}
}

func TestCheckIn_Success(t *testing.T) {
	svc, repo := setupCheckInService()
	ctx := context.Background()
	code, _ := svc.CreateCode(ctx, "admin", "ev-1", &dto.CreateCheckInCodeRequest{Code: strPtr("GOSHARE1")})

	resp, err := svc.CheckIn(ctx, "u-1", &dto.CheckInRequest{Code: "goshare1"})
	if err != nil {
		t.Fatalf("签到失败: %v", err)
	}
	if resp.EventTitle != "Go 分享会" || resp.RegistrationID != "reg-1" {
		t.Errorf("返回值不符: %+v", resp)
	}

	reg, _ := repo.EventRegistration.GetByID(ctx, "reg-1")
	if reg.Status != model.RegistrationAttended || reg.CheckedInAt == nil {
		t.Errorf("报名应标记为出席: %+v", reg)
	}
	stored, _ := repo.CheckInCode.GetByID(ctx, code.ID)
	if stored.UsedCount != 1 {
		t.Errorf("used_count 期望 1，实际 %d", stored.UsedCount)
	}

	if _, err := svc.CheckIn(ctx, "u-1", &dto.CheckInRequest{Code: "GOSHARE1"}); !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Errorf("重复签到应失败，实际 %v", err)
	}
}

func TestCheckIn_Rejections(t *testing.T) {
	svc, _ := setupCheckInService()
	ctx := context.Background()
	code, _ := svc.CreateCode(ctx, "admin", "ev-1", &dto.CreateCheckInCodeRequest{Code: strPtr("GOSHARE1")})

	if _, err := svc.CheckIn(ctx, "u-3", &dto.CheckInRequest{Code: "GOSHARE1"}); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("未报名应失败，实际 %v", err)
	}
	if _, err := svc.CheckIn(ctx, "u-2", &dto.CheckInRequest{Code: "GOSHARE1"}); !errors.Is(err, ErrRegistrationCancelled) {
		t.Errorf("已取消应失败，实际 %v", err)
	}
	if _, err := svc.CheckIn(ctx, "u-1", &dto.CheckInRequest{Code: "NOPE0000"}); !errors.Is(err, ErrCheckInCodeNotFound) {
		t.Errorf("无效签到码应失败，实际 %v", err)
	}

	// 有效期外
	svc.now = func() time.Time { return checkInNow.Add(3 * time.Hour) }
	if _, err := svc.CheckIn(ctx, "u-1", &dto.CheckInRequest{Code: "GOSHARE1"}); !errors.Is(err, ErrCheckInCodeExpired) {
		t.Errorf("过期应失败，实际 %v", err)
	}

	svc.now = func() time.Time { return checkInNow }
	svc.DeactivateCode(ctx, "admin", code.ID)
	if _, err := svc.CheckIn(ctx, "u-1", &dto.CheckInRequest{Code: "GOSHARE1"}); !errors.Is(err, ErrCheckInCodeInactive) {
		t.Errorf("停用后应失败，实际 %v", err)
	}
}

func TestSweepExpired(t *testing.T) {
	svc, _ := setupCheckInService()
	ctx := context.Background()
	svc.CreateCode(ctx, "admin", "ev-1", &dto.CreateCheckInCodeRequest{Code: strPtr("EARLY001"), ValidUntil: strPtr("2026-05-20T14:30:00Z")})
	svc.CreateCode(ctx, "admin", "ev-1", &dto.CreateCheckInCodeRequest{Code: strPtr("LATE0001")})

	n, err := svc.SweepExpired(ctx, checkInNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("清理失败: %v", err)
	}
	if n != 1 {
		t.Errorf("期望停用 1 个，实际 %d", n)
	}

	codes, _ := svc.ListCodes(ctx, "ev-1")
	for _, c := range codes {
		if c.Code == "EARLY001" && c.IsActive {
			t.Error("过期签到码应被停用")
		}
		if c.Code == "LATE0001" && !c.IsActive {
			t.Error("未过期签到码不应被停用")
		}
	}
}
