package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Frame is one accepted command and what it produced.
type Frame struct {
	Seq      int      `json:"seq"`
	FrameID  string   `json:"frameId"`
	Player   PlayerID `json:"player"`
	Command  string   `json:"command"`
	Actions  []Action `json:"actions"`
	Checksum string   `json:"checksum"`
}

// Replay is the ordered record of a match's accepted commands.
type Replay struct {
	GameID string
	// Players holds the user ids seated as A and B.
	Players [2]string
	Frames  []*Frame
	mu      sync.RWMutex
}

// NewReplay creates an empty replay.
func NewReplay(gameID string, players [2]string) *Replay {
	return &Replay{
		GameID:  gameID,
		Players: players,
		Frames:  make([]*Frame, 0),
	}
}

// Record appends a frame stamped with a sortable id and the game checksum.
func (r *Replay) Record(g *Game, player PlayerID, command string, actions []Action) *Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	frame := &Frame{
		Seq:      len(r.Frames),
		FrameID:  ulid.Make().String(),
		Player:   player,
		Command:  command,
		Actions:  append([]Action(nil), actions...),
		Checksum: g.Checksum(),
	}
	r.Frames = append(r.Frames, frame)
	return frame
}

// Size returns the number of frames.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.Frames)
}

// Seat returns the seat userID played, if any.
func (r *Replay) Seat(userID string) (PlayerID, bool) {
	for seat, id := range r.Players {
		if id != "" && id == userID {
			return seat, true
		}
	}
	return 0, false
}

// replayMetadata heads a saved replay file.
type replayMetadata struct {
	GameID     string
	Players    [2]string
	Timestamp  time.Time
	Version    int
	FrameCount int
}

const replayVersion = 1

// SaveToFile writes the replay as gzipped gob to <directory>/<game id>.replay.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.GameID))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	encoder := gob.NewEncoder(gzipWriter)

	metadata := replayMetadata{
		GameID:     r.GameID,
		Players:    r.Players,
		Timestamp:  time.Now(),
		Version:    replayVersion,
		FrameCount: len(r.Frames),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	for i, frame := range r.Frames {
		if err := encoder.Encode(frame); err != nil {
			return fmt.Errorf("failed to encode frame %d: %w", i, err)
		}
	}
	return gzipWriter.Close()
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", gameID))

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	replay := NewReplay(metadata.GameID, metadata.Players)
	for i := 0; i < metadata.FrameCount; i++ {
		var frame Frame
		if err := decoder.Decode(&frame); err != nil {
			return nil, fmt.Errorf("failed to decode frame %d: %w", i, err)
		}
		replay.Frames = append(replay.Frames, &frame)
	}
	return replay, nil
}

// ReplayRecorder keeps the replays of running matches and writes them out
// when a match ends.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay
	saveDir string
}

// NewReplayRecorder creates a recorder. An empty saveDir keeps replays in
// memory only.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		saveDir: saveDir,
	}
}

// StartRecording begins recording a game played by players.
func (rr *ReplayRecorder) StartRecording(gameID string, players [2]string) *Replay {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	replay := NewReplay(gameID, players)
	rr.replays[gameID] = replay

	if rr.logger != nil {
		rr.logger.Info("started replay recording", zap.String("game_id", gameID))
	}
	return replay
}

// Record appends a frame to a game's replay if it is being recorded.
func (rr *ReplayRecorder) Record(g *Game, player PlayerID, command string, actions []Action) {
	rr.mu.RLock()
	replay := rr.replays[g.ID]
	rr.mu.RUnlock()

	if replay == nil {
		return
	}
	frame := replay.Record(g, player, command, actions)

	if rr.logger != nil {
		rr.logger.Debug("recorded replay frame",
			zap.String("game_id", g.ID),
			zap.Int("seq", frame.Seq),
			zap.String("command", command),
		)
	}
}

// GetReplay returns the in-memory replay of a game.
func (rr *ReplayRecorder) GetReplay(gameID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	replay, exists := rr.replays[gameID]
	return replay, exists
}

// SaveReplay writes a replay to disk and forgets it.
func (rr *ReplayRecorder) SaveReplay(gameID string) error {
	rr.mu.Lock()
	replay, exists := rr.replays[gameID]
	if !exists {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for game %s", gameID)
	}
	delete(rr.replays, gameID)
	rr.mu.Unlock()

	if rr.saveDir == "" {
		return nil
	}
	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}

	if rr.logger != nil {
		rr.logger.Info("saved replay to disk",
			zap.String("game_id", gameID),
			zap.Int("frame_count", replay.Size()),
			zap.String("directory", rr.saveDir),
		)
	}
	return nil
}

// LoadReplay reads a saved replay. Recorders without a directory have
// nothing on disk.
func (rr *ReplayRecorder) LoadReplay(gameID string) (*Replay, error) {
	if rr.saveDir == "" {
		return nil, fmt.Errorf("no replay directory: %w", os.ErrNotExist)
	}
	return LoadReplayFromFile(rr.saveDir, gameID)
}

// ClearReplay drops a replay without saving it.
func (rr *ReplayRecorder) ClearReplay(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	delete(rr.replays, gameID)
}
