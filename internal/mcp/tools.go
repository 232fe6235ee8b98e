package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	st, err := s.daemon.GetStatus()
	if err != nil {
		s.logger.Warn("get_status failed", "error", err)
		return nil, StatusOutput{}, fmt.Errorf("get status: %w", err)
	}
	return nil, StatusOutput{Status: *st}, nil
}

func (s *Server) handleReload(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ReloadOutput, error) {
	data, err := s.daemon.Reload()
	if err != nil {
		s.logger.Warn("reload failed", "error", err)
		return nil, ReloadOutput{}, fmt.Errorf("reload: %w", err)
	}
	s.logger.Info("reload requested over MCP", "settings_version", data.SettingsVersion)
	return nil, ReloadOutput{SettingsVersion: data.SettingsVersion}, nil
}

func (s *Server) handleReapply(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ReapplyOutput, error) {
	data, err := s.daemon.Reapply()
	if err != nil {
		s.logger.Warn("reapply failed", "error", err)
		return nil, ReapplyOutput{}, fmt.Errorf("reapply: %w", err)
	}
	return nil, ReapplyOutput{Surfaces: data.Surfaces, Warning: data.Error}, nil
}
