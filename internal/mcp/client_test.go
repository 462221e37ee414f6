/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cerebric/cerebric/internal/tool"
)

func TestNewManager(t *testing.T) {
	m := NewManager(logr.Discard())
	if m == nil {
		t.Fatal("NewManager returned nil")
	}
	if len(m.connections) != 0 {
		t.Errorf("expected 0 connections, got %d", len(m.connections))
	}
	if m.httpTimeout == 0 {
		t.Error("httpTimeout should have a default")
	}
}

func TestManagerServerNames(t *testing.T) {
	m := NewManager(logr.Discard())
	m.connections["k8sgpt"] = &ServerConnection{Name: "k8sgpt", Healthy: true}
	m.connections["fsprobe"] = &ServerConnection{Name: "fsprobe", Healthy: false}

	names := m.ServerNames()
	if len(names) != 2 {
		t.Errorf("expected 2 names, got %d", len(names))
	}
}

func TestManagerConnections(t *testing.T) {
	m := NewManager(logr.Discard())
	m.connections["test"] = &ServerConnection{
		Name:     "test",
		Endpoint: "http://localhost:8089",
		Healthy:  true,
	}

	conns := m.Connections()
	if len(conns) != 1 {
		t.Errorf("expected 1 connection, got %d", len(conns))
	}
	if conns["test"].Endpoint != "http://localhost:8089" {
		t.Errorf("unexpected endpoint: %s", conns["test"].Endpoint)
	}
}

func TestConnectAllGracefulDegradation(t *testing.T) {
	m := NewManager(logr.Discard())

	// Connecting to a non-existent server should not return an error
	// (graceful degradation).
	servers := map[string]ServerSpec{
		"nonexistent": {
			Endpoint:     "http://127.0.0.1:1", // will fail to connect
			Capabilities: []string{"test.analyze"},
		},
	}

	err := m.ConnectAll(context.Background(), servers)
	if err != nil {
		t.Fatalf("ConnectAll should not fail on unreachable servers: %v", err)
	}

	conns := m.Connections()
	if len(conns) != 1 {
		t.Fatalf("expected 1 connection, got %d", len(conns))
	}
	if conns["nonexistent"].Healthy {
		t.Error("connection to nonexistent server should not be healthy")
	}
	if conns["nonexistent"].Error == nil {
		t.Error("connection error should be recorded")
	}
}

func TestMCPToolName(t *testing.T) {
	tool := NewMCPTool("k8sgpt", nil, &mcpsdk.Tool{
		Name:        "analyze",
		Description: "Analyze cluster for issues",
	}, nil)

	if name := tool.Name(); name != "mcp.k8sgpt.analyze" {
		t.Errorf("Name() = %q, want %q", name, "mcp.k8sgpt.analyze")
	}
}

func TestMCPToolDescription(t *testing.T) {
	tool := NewMCPTool("k8sgpt", nil, &mcpsdk.Tool{
		Name:        "analyze",
		Description: "Analyze cluster for issues",
	}, nil)

	if desc := tool.Description(); desc != "Analyze cluster for issues" {
		t.Errorf("Description() = %q, want %q", desc, "Analyze cluster for issues")
	}

	tool2 := NewMCPTool("k8sgpt", nil, &mcpsdk.Tool{Name: "analyze"}, nil)
	if desc := tool2.Description(); desc == "" {
		t.Error("Description() should provide fallback for empty description")
	}
}

func TestMCPToolSideEffectsFalse(t *testing.T) {
	tool := NewMCPTool("k8sgpt", nil, &mcpsdk.Tool{Name: "analyze"}, nil)
	if tool.SideEffects() {
		t.Error("MCPTool.SideEffects() should be false")
	}
}

func TestMCPToolParametersNil(t *testing.T) {
	tool := NewMCPTool("test", nil, &mcpsdk.Tool{
		Name:        "noop",
		InputSchema: nil,
	}, nil)

	params := tool.Parameters()
	if params == nil {
		t.Fatal("Parameters() should not return nil")
	}
	if params["type"] != "object" {
		t.Errorf("type = %v, want 'object'", params["type"])
	}
}

func TestMCPToolParametersMap(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"filter": map[string]any{
				"type":        "string",
				"description": "analyzer filter",
			},
		},
	}

	tool := NewMCPTool("test", nil, &mcpsdk.Tool{
		Name:        "analyze",
		InputSchema: schema,
	}, nil)

	params := tool.Parameters()
	if params["type"] != "object" {
		t.Errorf("type = %v, want 'object'", params["type"])
	}
	props, ok := params["properties"].(map[string]any)
	if !ok {
		t.Fatal("properties should be a map")
	}
	if _, ok := props["filter"]; !ok {
		t.Error("missing 'filter' property")
	}
}

func TestExtractTextContent(t *testing.T) {
	result := &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: "line 1"},
			&mcpsdk.TextContent{Text: "line 2"},
		},
	}

	text := extractTextContent(result)
	if text != "line 1\nline 2" {
		t.Errorf("extractTextContent = %q, want %q", text, "line 1\nline 2")
	}
}

func TestExtractTextContentNil(t *testing.T) {
	text := extractTextContent(nil)
	if text != "" {
		t.Errorf("extractTextContent(nil) = %q, want empty", text)
	}
}

func TestExtractTextContentEmpty(t *testing.T) {
	result := &mcpsdk.CallToolResult{}
	text := extractTextContent(result)
	if text != "" {
		t.Errorf("extractTextContent(empty) = %q, want empty", text)
	}
}

func TestRegisterToolsSkipsUnhealthy(t *testing.T) {
	m := NewManager(logr.Discard())
	m.connections["healthy"] = &ServerConnection{
		Name:    "healthy",
		Healthy: false, // unhealthy — should be skipped
		Tools: []*mcpsdk.Tool{
			{Name: "analyze", Description: "test"},
		},
	}

	registry := tool.NewRegistry()
	count := m.RegisterTools(registry)

	if count != 0 {
		t.Errorf("RegisterTools should skip unhealthy servers, got %d", count)
	}
	if len(registry.List()) != 0 {
		t.Errorf("Registry should be empty, got %d tools", len(registry.List()))
	}
}

// TestInMemoryMCPIntegration tests the full MCP flow using in-memory transport.
func TestInMemoryMCPIntegration(t *testing.T) {
	ctx := context.Background()

	server := mcpsdk.NewServer(
		&mcpsdk.Implementation{Name: "test-server", Version: "v1.0.0"},
		nil,
	)
	type analyzeArgs struct {
		Filter string `json:"filter"`
	}
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "analyze",
		Description: "Analyze system for issues",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, args analyzeArgs) (*mcpsdk.CallToolResult, any, error) {
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{
				&mcpsdk.TextContent{Text: "2 issues found for filter: " + args.Filter},
			},
		}, nil, nil
	})

	t1, t2 := mcpsdk.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, t1, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	defer serverSession.Close()

	client := mcpsdk.NewClient(
		&mcpsdk.Implementation{Name: "cerebric", Version: "v0.1.0"},
		nil,
	)
	clientSession, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer clientSession.Close()

	result, err := clientSession.ListTools(ctx, &mcpsdk.ListToolsParams{})
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(result.Tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(result.Tools))
	}
	if result.Tools[0].Name != "analyze" {
		t.Errorf("tool name = %q, want %q", result.Tools[0].Name, "analyze")
	}

	mcpTool := NewMCPTool("k8sgpt", clientSession, result.Tools[0], nil)

	if mcpTool.Name() != "mcp.k8sgpt.analyze" {
		t.Errorf("Name() = %q, want %q", mcpTool.Name(), "mcp.k8sgpt.analyze")
	}

	resp, err := mcpTool.Execute(ctx, tool.Request{
		RequestID: "req-1",
		Inputs:    map[string]any{"filter": "Pod"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Outputs["result"] != "2 issues found for filter: Pod" {
		t.Errorf("output = %q, want %q", resp.Outputs["result"], "2 issues found for filter: Pod")
	}
	if !resp.OK || resp.RequestID != "req-1" {
		t.Fatalf("unexpected response envelope: %+v", resp)
	}

	registry := tool.NewRegistry()
	registry.Register(mcpTool)

	regResp, err := registry.Execute(ctx, "mcp.k8sgpt.analyze", tool.Request{
		RequestID: "req-2",
		Inputs:    map[string]any{"filter": "Node"},
	})
	if err != nil {
		t.Fatalf("registry Execute: %v", err)
	}
	if regResp.Outputs["result"] != "2 issues found for filter: Node" {
		t.Errorf("registry output = %q, want %q", regResp.Outputs["result"], "2 issues found for filter: Node")
	}
}

// TestInMemoryMCPWithNoiseFilter tests that noise filters work in the full flow.
func TestInMemoryMCPWithNoiseFilter(t *testing.T) {
	ctx := context.Background()

	server := mcpsdk.NewServer(
		&mcpsdk.Implementation{Name: "test-k8sgpt", Version: "v1.0.0"},
		nil,
	)
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "analyze",
		Description: "Analyze cluster",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, _ any) (*mcpsdk.CallToolResult, any, error) {
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{
				&mcpsdk.TextContent{Text: "ConfigMap default/kube-root-ca.crt is unused\nPod backstage/app-xyz is CrashLoopBackOff\nKyverno policy violation on backstage/app-xyz"},
			},
		}, nil, nil
	})

	t1, t2 := mcpsdk.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, t1, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	defer serverSession.Close()

	client := mcpsdk.NewClient(
		&mcpsdk.Implementation{Name: "cerebric", Version: "v0.1.0"},
		nil,
	)
	clientSession, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer clientSession.Close()

	result, err := clientSession.ListTools(ctx, &mcpsdk.ListToolsParams{})
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}

	mcpTool := NewMCPTool("k8sgpt", clientSession, result.Tools[0], DefaultNoiseFilters())
	resp, err := mcpTool.Execute(ctx, tool.Request{RequestID: "req-3"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	output, _ := resp.Outputs["result"].(string)

	if strings.Contains(output, "kube-root-ca.crt") {
		t.Error("kube-root-ca.crt should be filtered out")
	}
	if strings.Contains(output, "Kyverno") {
		t.Error("Kyverno policy violation should be filtered out")
	}
	if !strings.Contains(output, "CrashLoopBackOff") {
		t.Error("CrashLoopBackOff should NOT be filtered out")
	}
}

func TestManagerClose(t *testing.T) {
	m := NewManager(logr.Discard())
	m.connections["test"] = &ServerConnection{
		Name:    "test",
		Session: nil, // no session — Close should handle nil gracefully
		Healthy: false,
	}

	// Should not panic.
	m.Close()

	if len(m.connections) != 0 {
		t.Errorf("connections should be empty after Close, got %d", len(m.connections))
	}
}
