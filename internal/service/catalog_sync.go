package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"persona-quest/internal/logger"
	"persona-quest/internal/model"

	sdk "github.com/matrixorigin/moi-go-sdk"
)

// CatalogTables holds the MatrixOne table ids rows are appended to. A zero id disables that table.
type CatalogTables struct {
	Persona    int64
	Quest      int64
	QuestEvent int64
}

// CatalogSync appends persisted rows to MatrixOne catalog tables as CSV imports.
// quests keeps creation-time rows; later state changes land in quest_events.
type CatalogSync struct {
	raw               *sdk.RawClient
	sdk               *sdk.SDKClient
	databaseID        sdk.DatabaseID
	personaTableID    sdk.TableID
	questTableID      sdk.TableID
	questEventTableID sdk.TableID
	now               func() time.Time
}

func NewCatalogSync(raw *sdk.RawClient, databaseID int64, tables CatalogTables) *CatalogSync {
	return &CatalogSync{
		raw:               raw,
		sdk:               sdk.NewSDKClient(raw),
		databaseID:        sdk.DatabaseID(databaseID),
		personaTableID:    sdk.TableID(tables.Persona),
		questTableID:      sdk.TableID(tables.Quest),
		questEventTableID: sdk.TableID(tables.QuestEvent),
		now:               time.Now,
	}
}

var personaMapping = []sdk.FileAndTableColumnMapping{
	{TableColumn: "id", Column: "id", ColNumInFile: 1},
	{TableColumn: "session_id", Column: "session_id", ColNumInFile: 2},
	{TableColumn: "strong", Column: "strong", ColNumInFile: 3},
	{TableColumn: "weakness", Column: "weakness", ColNumInFile: 4},
	{TableColumn: "keyword", Column: "keyword", ColNumInFile: 5},
	{TableColumn: "created_at", Column: "created_at", ColNumInFile: 6},
}

var questMapping = []sdk.FileAndTableColumnMapping{
	{TableColumn: "id", Column: "id", ColNumInFile: 1},
	{TableColumn: "session_id", Column: "session_id", ColNumInFile: 2},
	{TableColumn: "mission_text", Column: "mission_text", ColNumInFile: 3},
	{TableColumn: "state", Column: "state", ColNumInFile: 4},
	{TableColumn: "created_at", Column: "created_at", ColNumInFile: 5},
}

var questEventMapping = []sdk.FileAndTableColumnMapping{
	{TableColumn: "quest_id", Column: "quest_id", ColNumInFile: 1},
	{TableColumn: "session_id", Column: "session_id", ColNumInFile: 2},
	{TableColumn: "state", Column: "state", ColNumInFile: 3},
	{TableColumn: "changed_at", Column: "changed_at", ColNumInFile: 4},
}

func (s *CatalogSync) SyncPersona(ctx context.Context, p model.Persona) {
	if s.personaTableID == 0 {
		return
	}
	s.importCSV(ctx, s.personaTableID, personaCSV([]model.Persona{p}), fmt.Sprintf("persona_%d.csv", p.ID), personaMapping)
}

func (s *CatalogSync) SyncQuests(ctx context.Context, quests []model.Quest) {
	if s.questTableID == 0 || len(quests) == 0 {
		return
	}
	name := fmt.Sprintf("quest_%d_%d.csv", quests[0].ID, quests[len(quests)-1].ID)
	s.importCSV(ctx, s.questTableID, questCSV(quests), name, questMapping)
}

// SyncQuestStates records applied state changes as rows of quest_events.
func (s *CatalogSync) SyncQuestStates(ctx context.Context, session string, updates []model.QuestUpdate) {
	if s.questEventTableID == 0 || len(updates) == 0 {
		return
	}
	at := s.now()
	name := fmt.Sprintf("quest_event_%d_%d.csv", updates[0].ID, at.UnixNano())
	s.importCSV(ctx, s.questEventTableID, questEventCSV(session, updates, at), name, questEventMapping)
}

func personaCSV(personas []model.Persona) string {
	var buf bytes.Buffer
	for _, p := range personas {
		fmt.Fprintf(&buf, "%d,%s,%s,%s,%s,%s\n",
			p.ID, esc(p.SessionID), esc(p.Strong), esc(p.Weakness), esc(p.Keyword), stamp(p.CreatedAt))
	}
	return buf.String()
}

func questCSV(quests []model.Quest) string {
	var buf bytes.Buffer
	for _, q := range quests {
		fmt.Fprintf(&buf, "%d,%s,%s,%s,%s\n",
			q.ID, esc(q.SessionID), esc(q.MissionText), q.State, stamp(q.CreatedAt))
	}
	return buf.String()
}

func questEventCSV(session string, updates []model.QuestUpdate, at time.Time) string {
	var buf bytes.Buffer
	for _, u := range updates {
		fmt.Fprintf(&buf, "%d,%s,%s,%s\n", u.ID, esc(session), u.State, stamp(at))
	}
	return buf.String()
}

func (s *CatalogSync) importCSV(ctx context.Context, tableID sdk.TableID, csv, fileName string, mapping []sdk.FileAndTableColumnMapping) {
	resp, err := s.raw.UploadLocalFile(ctx, bytes.NewReader([]byte(csv)), fileName, []sdk.FileMeta{{Filename: fileName, Path: "/"}})
	if err != nil {
		logger.Warn("catalog.sync.upload_failed", "table", tableID, "err", err)
		return
	}
	if len(resp.ConnFileIds) == 0 {
		logger.Warn("catalog.sync.no_conn_file_ids", "table", tableID)
		return
	}

	_, err = s.sdk.ImportLocalFileToTable(ctx, &sdk.TableConfig{
		ConnFileIDs:      resp.ConnFileIds,
		NewTable:         false,
		DatabaseID:       s.databaseID,
		TableID:          tableID,
		IsColumnName:     false,
		RowStart:         1,
		Conflict:         1,
		ExistedTable:     mapping,
		ExistedTableOpts: sdk.ExistedTableOptions{Method: sdk.ExistedTableOptionAppend},
	})
	if err != nil {
		logger.Warn("catalog.sync.import_failed", "table", tableID, "err", err)
		return
	}
	logger.Info("catalog.sync.ok", "table", tableID, "file", fileName)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format("2006-01-02 15:04:05")
}

func esc(s string) string {
	if strings.ContainsAny(s, ",\"\n\r") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
