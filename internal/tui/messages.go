package tui

import (
	"github.com/Veraticus/rinde/internal/model"
	"github.com/Veraticus/rinde/internal/notice"
)

// Backend results.
type loginResultMsg struct {
	err  error
	user model.User
}

type logoutResultMsg struct {
	err error
}

type entriesLoadedMsg struct {
	err     error
	entries []model.Entry
}

type entryCreatedMsg struct {
	err error
}

type reportExportedMsg struct {
	err error
}

// noticeMsg carries a notice taken from the mailbox.
type noticeMsg struct {
	notice notice.Notice
}

// toastExpiredMsg removes a toast once its time is up.
type toastExpiredMsg struct {
	id int
}
