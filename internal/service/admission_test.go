package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"Podyom/internal/model"
	pkgerrors "Podyom/pkg/errors"
)

func TestGroupTapFirstTapRegisters(t *testing.T) {
	svc, db, notifier := newTestAdmission(t)
	seedChallenge(t, db)
	ctx := context.Background()

	at := moscowTime(2026, 8, 23, 6, 30)
	verdict, err := svc.HandleGroupTap(ctx, GroupTapEvent{TelegramID: 1001, Username: "anna", At: at})
	if err != nil {
		t.Fatalf("HandleGroupTap: %v", err)
	}

	if verdict.Status != VerdictRejected || verdict.Reason != pkgerrors.MissingWakeTime.Code {
		t.Fatalf("verdict = %+v, want rejected missing_wake_time", verdict)
	}

	var user model.User
	if err := db.Where("telegram_id = ?", int64(1001)).First(&user).Error; err != nil {
		t.Fatalf("user not auto-created: %v", err)
	}
	if user.Timezone != "GMT+03:00" {
		t.Errorf("timezone = %q, want default GMT+03:00", user.Timezone)
	}

	var p model.Participation
	if err := db.Where("user_id = ?", user.ID).First(&p).Error; err != nil {
		t.Fatalf("participation not auto-created: %v", err)
	}

	if got := notifier.count(user.ID, "tap_reject"); got != 1 {
		t.Errorf("reject notices = %d, want 1", got)
	}

	// A second rejected tap the same local day stays silent.
	if _, err := svc.HandleGroupTap(ctx, GroupTapEvent{TelegramID: 1001, At: at.Add(10 * time.Minute)}); err != nil {
		t.Fatalf("second tap: %v", err)
	}
	if got := notifier.count(user.ID, "tap_reject"); got != 1 {
		t.Errorf("reject notices after second tap = %d, want 1", got)
	}

	var count int64
	db.Model(&model.CheckIn{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 2 {
		t.Errorf("check-in rows = %d, want 2 (each tap persisted)", count)
	}
}

func TestGroupTapWindow(t *testing.T) {
	tests := []struct {
		name       string
		localHour  int
		localMin   int
		wantStatus VerdictStatus
		wantReason string
	}{
		{"window start", 6, 5, VerdictAccepted, ""},
		{"in window before wake", 6, 10, VerdictAccepted, ""},
		{"exact wake", 7, 0, VerdictAccepted, ""},
		{"window end", 7, 10, VerdictAccepted, ""},
		{"one before window", 6, 4, VerdictRejected, pkgerrors.OutsideWindow.Code},
		{"one past window", 7, 11, VerdictRejected, pkgerrors.OutsideWindow.Code},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, db, _ := newTestAdmission(t)
			challenge := seedChallenge(t, db)
			user := seedUser(t, db, 2001, "GMT+03:00")
			seedParticipation(t, db, user.ID, challenge.ID, model.WakeModeFixed, "07:00")

			at := moscowTime(2026, 8, 23, tt.localHour, tt.localMin)
			verdict, err := svc.HandleGroupTap(context.Background(), GroupTapEvent{TelegramID: 2001, At: at})
			if err != nil {
				t.Fatalf("HandleGroupTap: %v", err)
			}

			if verdict.Status != tt.wantStatus || verdict.Reason != tt.wantReason {
				t.Errorf("verdict = %s/%s, want %s/%s", verdict.Status, verdict.Reason, tt.wantStatus, tt.wantReason)
			}
		})
	}
}

func TestGroupTapFlexAlwaysAccepted(t *testing.T) {
	svc, db, _ := newTestAdmission(t)
	challenge := seedChallenge(t, db)
	user := seedUser(t, db, 2002, "GMT+03:00")
	seedParticipation(t, db, user.ID, challenge.ID, model.WakeModeFlex, "")

	at := moscowTime(2026, 8, 23, 14, 45)
	verdict, err := svc.HandleGroupTap(context.Background(), GroupTapEvent{TelegramID: 2002, At: at})
	if err != nil {
		t.Fatalf("HandleGroupTap: %v", err)
	}
	if verdict.Status != VerdictAccepted {
		t.Errorf("verdict = %+v, want accepted", verdict)
	}
}

func TestGroupTapLeftParticipation(t *testing.T) {
	svc, db, _ := newTestAdmission(t)
	challenge := seedChallenge(t, db)
	user := seedUser(t, db, 2003, "GMT+03:00")
	p := seedParticipation(t, db, user.ID, challenge.ID, model.WakeModeFixed, "07:00")

	left := moscowTime(2026, 8, 20, 8, 0)
	db.Model(p).Update("left_at", left)

	verdict, err := svc.HandleGroupTap(context.Background(), GroupTapEvent{TelegramID: 2003, At: moscowTime(2026, 8, 23, 7, 0)})
	if err != nil {
		t.Fatalf("HandleGroupTap: %v", err)
	}
	if verdict.Status != VerdictRejected || verdict.Reason != pkgerrors.NotJoined.Code {
		t.Errorf("verdict = %+v, want rejected not_joined", verdict)
	}
}

func TestReportDailyDedup(t *testing.T) {
	svc, db, _ := newTestAdmission(t)
	challenge := seedChallenge(t, db)
	user := seedUser(t, db, 3001, "GMT+03:00")
	seedParticipation(t, db, user.ID, challenge.ID, model.WakeModeFixed, "07:00")
	ctx := context.Background()

	at := moscowTime(2026, 8, 23, 7, 10)
	verdict, err := svc.HandleReport(ctx, DirectMessageEvent{TelegramID: 3001, Source: model.CheckInSourceVoice, At: at})
	if err != nil {
		t.Fatalf("first report: %v", err)
	}
	if verdict.Status != VerdictPendingAntiCheat || verdict.Question == "" {
		t.Fatalf("verdict = %+v, want pending with question", verdict)
	}

	_, err = svc.HandleReport(ctx, DirectMessageEvent{TelegramID: 3001, Source: model.CheckInSourceVoice, At: at.Add(5 * time.Minute)})
	if !errors.Is(err, pkgerrors.AlreadyVoiceDay) {
		t.Fatalf("second report error = %v, want already_voice_today", err)
	}

	var pendingOrApproved int64
	db.Model(&model.CheckIn{}).
		Where("user_id = ? AND source = ? AND status IN ?", user.ID, model.CheckInSourceVoice,
			[]model.CheckInStatus{model.CheckInStatusPending, model.CheckInStatusApproved}).
		Count(&pendingOrApproved)
	if pendingOrApproved != 1 {
		t.Errorf("non-rejected voice check-ins = %d, want 1", pendingOrApproved)
	}

	var rejected model.CheckIn
	if err := db.Where("user_id = ? AND status = ?", user.ID, model.CheckInStatusRejected).First(&rejected).Error; err != nil {
		t.Fatalf("rejected duplicate not persisted: %v", err)
	}
	if rejected.RejectReason != pkgerrors.AlreadyVoiceDay.Code {
		t.Errorf("reject reason = %q, want already_voice_today", rejected.RejectReason)
	}
}

func TestReportPenaltyModeBoundary(t *testing.T) {
	svc, db, _ := newTestAdmission(t)
	challenge := seedChallenge(t, db)
	user := seedUser(t, db, 3002, "GMT+03:00")
	seedParticipation(t, db, user.ID, challenge.ID, model.WakeModeFixed, "07:00")
	ctx := context.Background()

	// wake+30 is still allowed.
	if _, err := svc.HandleReport(ctx, DirectMessageEvent{TelegramID: 3002, Source: model.CheckInSourceVoice, At: moscowTime(2026, 8, 22, 7, 30)}); err != nil {
		t.Fatalf("report at wake+30: %v", err)
	}

	_, err := svc.HandleReport(ctx, DirectMessageEvent{TelegramID: 3002, Source: model.CheckInSourceVoice, At: moscowTime(2026, 8, 23, 7, 31)})
	if !errors.Is(err, pkgerrors.PenaltyMode) {
		t.Fatalf("report at wake+31 error = %v, want penalty_mode", err)
	}
	_ = user
}

func TestReportFlexExemptFromPenaltyMode(t *testing.T) {
	svc, db, _ := newTestAdmission(t)
	challenge := seedChallenge(t, db)
	user := seedUser(t, db, 3003, "GMT+03:00")
	seedParticipation(t, db, user.ID, challenge.ID, model.WakeModeFlex, "")

	verdict, err := svc.HandleReport(context.Background(), DirectMessageEvent{TelegramID: 3003, Source: model.CheckInSourceText, Text: "проснулся", At: moscowTime(2026, 8, 23, 21, 0)})
	if err != nil {
		t.Fatalf("flex report: %v", err)
	}
	if verdict.Status != VerdictPendingAntiCheat {
		t.Errorf("verdict = %+v, want pending", verdict)
	}
}

func TestAntiCheatPassApprovesCheckIn(t *testing.T) {
	svc, db, _ := newTestAdmission(t)
	challenge := seedChallenge(t, db)
	user := seedUser(t, db, 4001, "GMT+03:00")
	seedParticipation(t, db, user.ID, challenge.ID, model.WakeModeFixed, "07:00")
	ctx := context.Background()

	at := moscowTime(2026, 8, 23, 7, 5)
	verdict, err := svc.HandleReport(ctx, DirectMessageEvent{TelegramID: 4001, Source: model.CheckInSourceVoice, At: at})
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	var ac model.AntiCheatChallenge
	if err := db.Where("check_in_id = ?", verdict.CheckInID).First(&ac).Error; err != nil {
		t.Fatalf("anti-cheat challenge not created: %v", err)
	}

	// One wrong answer, then the right one on attempt two.
	outcome, err := svc.SubmitAnswer(ctx, user.ID, "999", at.Add(30*time.Second))
	if err != nil {
		t.Fatalf("wrong answer: %v", err)
	}
	if outcome.Status != model.AntiCheatStatusPending || outcome.AttemptsLeft != 2 {
		t.Fatalf("outcome = %+v, want pending with 2 attempts left", outcome)
	}

	outcome, err = svc.SubmitAnswer(ctx, user.ID, itoa(ac.Answer), at.Add(time.Minute))
	if err != nil {
		t.Fatalf("correct answer: %v", err)
	}
	if outcome.Status != model.AntiCheatStatusPassed {
		t.Fatalf("outcome = %+v, want passed", outcome)
	}

	var checkIn model.CheckIn
	db.First(&checkIn, verdict.CheckInID)
	if checkIn.Status != model.CheckInStatusApproved {
		t.Errorf("check-in status = %s, want approved", checkIn.Status)
	}
}

func TestAntiCheatExhaustion(t *testing.T) {
	svc, db, _ := newTestAdmission(t)
	challenge := seedChallenge(t, db)
	user := seedUser(t, db, 4002, "GMT+03:00")
	seedParticipation(t, db, user.ID, challenge.ID, model.WakeModeFixed, "07:00")
	ctx := context.Background()

	at := moscowTime(2026, 8, 23, 7, 5)
	verdict, err := svc.HandleReport(ctx, DirectMessageEvent{TelegramID: 4002, Source: model.CheckInSourceVoice, At: at})
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	for i := 0; i < 2; i++ {
		outcome, err := svc.SubmitAnswer(ctx, user.ID, "999", at.Add(time.Duration(i+1)*10*time.Second))
		if err != nil {
			t.Fatalf("wrong answer %d: %v", i+1, err)
		}
		if outcome.Status != model.AntiCheatStatusPending {
			t.Fatalf("outcome %d = %+v, want pending", i+1, outcome)
		}
	}

	outcome, err := svc.SubmitAnswer(ctx, user.ID, "999", at.Add(40*time.Second))
	if err != nil {
		t.Fatalf("third wrong answer: %v", err)
	}
	if outcome.Status != model.AntiCheatStatusFailed {
		t.Fatalf("outcome = %+v, want failed", outcome)
	}

	var checkIn model.CheckIn
	db.First(&checkIn, verdict.CheckInID)
	if checkIn.Status != model.CheckInStatusRejected || checkIn.RejectReason != pkgerrors.AntiCheatFailed.Code {
		t.Errorf("check-in = %s/%s, want rejected/anticheat_failed", checkIn.Status, checkIn.RejectReason)
	}

	// Terminal: no further submissions accepted.
	if _, err := svc.SubmitAnswer(ctx, user.ID, "8", at.Add(time.Minute)); !errors.Is(err, pkgerrors.NoPendingCheck) {
		t.Errorf("post-terminal submission error = %v, want no_pending_check", err)
	}
}

func TestAntiCheatExpiry(t *testing.T) {
	svc, db, _ := newTestAdmission(t)
	challenge := seedChallenge(t, db)
	user := seedUser(t, db, 4003, "GMT+03:00")
	seedParticipation(t, db, user.ID, challenge.ID, model.WakeModeFixed, "07:00")
	ctx := context.Background()

	at := moscowTime(2026, 8, 23, 7, 5)
	verdict, err := svc.HandleReport(ctx, DirectMessageEvent{TelegramID: 4003, Source: model.CheckInSourceVoice, At: at})
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	outcome, err := svc.SubmitAnswer(ctx, user.ID, "8", at.Add(3*time.Minute))
	if err != nil {
		t.Fatalf("late answer: %v", err)
	}
	if outcome.Status != model.AntiCheatStatusExpired {
		t.Fatalf("outcome = %+v, want expired", outcome)
	}

	var checkIn model.CheckIn
	db.First(&checkIn, verdict.CheckInID)
	if checkIn.Status != model.CheckInStatusRejected || checkIn.RejectReason != pkgerrors.AntiCheatExpired.Code {
		t.Errorf("check-in = %s/%s, want rejected/anticheat_expired", checkIn.Status, checkIn.RejectReason)
	}
}

func TestAntiCheatInvalidAnswer(t *testing.T) {
	svc, db, _ := newTestAdmission(t)
	challenge := seedChallenge(t, db)
	user := seedUser(t, db, 4004, "GMT+03:00")
	seedParticipation(t, db, user.ID, challenge.ID, model.WakeModeFixed, "07:00")
	ctx := context.Background()

	at := moscowTime(2026, 8, 23, 7, 5)
	if _, err := svc.HandleReport(ctx, DirectMessageEvent{TelegramID: 4004, Source: model.CheckInSourceVoice, At: at}); err != nil {
		t.Fatalf("report: %v", err)
	}

	if _, err := svc.SubmitAnswer(ctx, user.ID, "восемь", at.Add(10*time.Second)); !errors.Is(err, pkgerrors.InvalidAnswer) {
		t.Fatalf("error = %v, want invalid_answer", err)
	}

	// Unparseable input costs no attempt.
	var ac model.AntiCheatChallenge
	db.Where("user_id = ?", user.ID).First(&ac)
	if ac.Attempts != 0 {
		t.Errorf("attempts = %d, want 0", ac.Attempts)
	}
}

func TestDirectMessageMultiplexing(t *testing.T) {
	svc, db, _ := newTestAdmission(t)
	challenge := seedChallenge(t, db)
	user := seedUser(t, db, 5001, "GMT+03:00")
	seedParticipation(t, db, user.ID, challenge.ID, model.WakeModeFixed, "07:00")
	ctx := context.Background()

	at := moscowTime(2026, 8, 23, 7, 5)
	verdict, outcome, err := svc.HandleDirectMessage(ctx, DirectMessageEvent{TelegramID: 5001, Source: model.CheckInSourceText, Text: "встал, бегу", At: at})
	if err != nil {
		t.Fatalf("first DM: %v", err)
	}
	if verdict == nil || outcome != nil {
		t.Fatalf("first DM should be a report, got verdict=%v outcome=%v", verdict, outcome)
	}

	var ac model.AntiCheatChallenge
	db.Where("user_id = ?", user.ID).First(&ac)

	// Next text DM is routed to the open challenge as an answer.
	verdict, outcome, err = svc.HandleDirectMessage(ctx, DirectMessageEvent{TelegramID: 5001, Source: model.CheckInSourceText, Text: itoa(ac.Answer), At: at.Add(time.Minute)})
	if err != nil {
		t.Fatalf("answer DM: %v", err)
	}
	if outcome == nil || verdict != nil {
		t.Fatalf("answer DM should be a submission, got verdict=%v outcome=%v", verdict, outcome)
	}
	if outcome.Status != model.AntiCheatStatusPassed {
		t.Errorf("outcome = %+v, want passed", outcome)
	}
}

func TestNoActiveChallenge(t *testing.T) {
	svc, _, _ := newTestAdmission(t)

	_, err := svc.HandleGroupTap(context.Background(), GroupTapEvent{TelegramID: 6001, At: moscowTime(2026, 8, 23, 7, 0)})
	if !errors.Is(err, pkgerrors.NoActiveChallenge) {
		t.Fatalf("error = %v, want no_active_challenge", err)
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
