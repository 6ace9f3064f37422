package main

import (
	"context"
	"fmt"
	"strings"

	"persona-quest/internal/logger"

	sdk "github.com/matrixorigin/moi-go-sdk"
)

type catalogTable struct {
	name    string
	comment string
	columns []sdk.Column
}

// catalogTables mirrors the column order written by service.CatalogSync.
func catalogTables() []catalogTable {
	return []catalogTable{
		{"personas", "설문 분석으로 도출된 페르소나", []sdk.Column{
			{Name: "id", Type: "INT", IsPk: true, Comment: "기본 키"},
			{Name: "session_id", Type: "VARCHAR(64)", Comment: "사용자 세션 ID"},
			{Name: "strong", Type: "TEXT", Comment: "강점 목록, 줄바꿈으로 구분"},
			{Name: "weakness", Type: "TEXT", Comment: "단점 목록, 줄바꿈으로 구분"},
			{Name: "keyword", Type: "TEXT", Comment: "보완 키워드, 쉼표로 구분"},
			{Name: "created_at", Type: "DATETIME", Comment: "생성 시각"},
		}},
		{"quests", "키워드에서 만들어진 실천 퀘스트", []sdk.Column{
			{Name: "id", Type: "INT", IsPk: true, Comment: "기본 키"},
			{Name: "session_id", Type: "VARCHAR(64)", Comment: "사용자 세션 ID"},
			{Name: "mission_text", Type: "VARCHAR(200)", Comment: "퀘스트 문장"},
			{Name: "state", Type: "VARCHAR(20)", Comment: "NOT 또는 SUCCESS"},
			{Name: "created_at", Type: "DATETIME", Comment: "생성 시각"},
		}},
		{"quest_events", "퀘스트 상태 변경 이력, 퀘스트별 최신 changed_at 행이 현재 상태", []sdk.Column{
			{Name: "quest_id", Type: "INT", Comment: "quests.id"},
			{Name: "session_id", Type: "VARCHAR(64)", Comment: "사용자 세션 ID"},
			{Name: "state", Type: "VARCHAR(20)", Comment: "변경된 상태, NOT 또는 SUCCESS"},
			{Name: "changed_at", Type: "DATETIME", Comment: "변경 시각"},
		}},
	}
}

func initCatalog(ctx context.Context, client *sdk.RawClient, catalogID sdk.CatalogID, dbName string) (sdk.DatabaseID, map[string]sdk.TableID, error) {
	// 1. Create database
	var dbID sdk.DatabaseID
	dbResp, err := client.CreateDatabase(ctx, &sdk.DatabaseCreateRequest{
		CatalogID:    catalogID,
		DatabaseName: dbName,
		Comment:      "persona-quest",
	})
	switch {
	case err == nil:
		dbID = dbResp.DatabaseID
		logger.Info("catalog: database created", "id", dbID)
	case isDuplicate(err):
		logger.Info("catalog: database already exists, discovering ID", "name", dbName)
		if dbID, err = discoverDatabaseID(ctx, client, catalogID, dbName); err != nil {
			return 0, nil, err
		}
	default:
		return 0, nil, fmt.Errorf("create database: %w", err)
	}

	// 2. Create tables
	ids := make(map[string]sdk.TableID)
	for _, t := range catalogTables() {
		resp, err := client.CreateTable(ctx, &sdk.TableCreateRequest{
			DatabaseID: dbID,
			Name:       t.name,
			Columns:    t.columns,
			Comment:    t.comment,
		})
		if err != nil {
			if isDuplicate(err) {
				logger.Info("catalog: table already exists, skipping", "name", t.name)
				continue
			}
			return 0, nil, fmt.Errorf("create table %s: %w", t.name, err)
		}
		ids[t.name] = resp.TableID
		logger.Info("catalog: table created", "name", t.name, "id", resp.TableID)
	}

	return dbID, ids, nil
}

func discoverDatabaseID(ctx context.Context, client *sdk.RawClient, catalogID sdk.CatalogID, dbName string) (sdk.DatabaseID, error) {
	resp, err := client.ListDatabases(ctx, &sdk.DatabaseListRequest{CatalogID: catalogID})
	if err != nil {
		return 0, fmt.Errorf("list databases: %w", err)
	}
	for _, db := range resp.List {
		if db.DatabaseName == dbName {
			logger.Info("catalog: database discovered", "id", db.DatabaseID)
			return db.DatabaseID, nil
		}
	}
	return 0, fmt.Errorf("database %s not found in catalog %d", dbName, catalogID)
}

func isDuplicate(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate") || strings.Contains(s, "already exist") || strings.Contains(s, "exists") || strings.Contains(s, "conflict")
}
