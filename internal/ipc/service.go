package ipc

import (
	"context"
	"fmt"
	"log/slog"

	"splitlink/internal/daemon"
	"splitlink/internal/livesplit"
	"splitlink/internal/logging"
	"splitlink/internal/session"
)

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	*resp = toStatusResponse(s.daemon.Status(s.ctx))
	return nil
}

func (s *service) Send(req SendRequest, resp *SendResponse) error {
	cmd, err := livesplit.ParseCommand(req.Command)
	if err != nil {
		return err
	}
	if cmd == livesplit.CommandQueryIndex {
		return fmt.Errorf("%s expects a reply, use SplitIndex", cmd)
	}
	result := s.daemon.Dispatch(s.ctx, cmd)
	*resp = SendResponse{
		Command:   cmd.String(),
		Transport: result.Transport.String(),
		Outcome:   livesplit.Outcome(result.Err),
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}
	s.logger.Debug("send handled",
		logging.String(logging.FieldCommand, resp.Command),
		logging.String("outcome", resp.Outcome),
	)
	return nil
}

func (s *service) SplitIndex(_ SplitIndexRequest, resp *SplitIndexResponse) error {
	result := s.daemon.Dispatch(s.ctx, livesplit.CommandQueryIndex)
	*resp = SplitIndexResponse{
		Index:     result.Index,
		Transport: result.Transport.String(),
		Outcome:   livesplit.Outcome(result.Err),
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}
	return nil
}

func (s *service) Connect(_ ConnectRequest, resp *ConnectResponse) error {
	resp.Status = toStatusResponse(s.daemon.Connect(s.ctx))
	return nil
}

func (s *service) Disconnect(_ DisconnectRequest, resp *DisconnectResponse) error {
	err := s.daemon.Disconnect(s.ctx)
	resp.Disconnected = err == nil
	if err != nil {
		resp.Error = err.Error()
	}
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	entries, err := s.daemon.History(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Entries = make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, HistoryEntry{
			ID:         entry.ID,
			SessionID:  entry.SessionID,
			Command:    entry.Command,
			Transport:  entry.Transport,
			Outcome:    entry.Outcome,
			Error:      entry.Error,
			SplitIndex: entry.SplitIndex,
			DurationMs: entry.Duration.Milliseconds(),
			CreatedAt:  entry.CreatedAt,
		})
	}
	return nil
}

func toStatusResponse(status daemon.Status) StatusResponse {
	return StatusResponse{
		Running:      status.Running,
		SessionID:    status.Session.SessionID,
		Transport:    status.Session.Transport,
		Connected:    status.Session.Connected,
		Cause:        status.Session.Cause,
		ConnectedAt:  status.Session.ConnectedAt,
		RelayAddr:    status.RelayAddr,
		RelayRunning: status.Session.RelayRunning,
		Listeners:    status.Session.Listeners,
		LastError:    status.Session.LastError,
		LastIndex:    copyIndex(status.Session),
		LockPath:     status.LockFilePath,
		JournalPath:  status.JournalPath,
		LogPath:      status.LogPath,
		PID:          status.PID,
	}
}

func copyIndex(status session.Status) *int {
	if status.LastIndex == nil {
		return nil
	}
	value := *status.LastIndex
	return &value
}
