package engine

import (
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/book"
	"github.com/hailam/chessplay/internal/movegen"
)

// SearchInfo contains information about the current search, reported
// once per completed iterative-deepening depth.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = no limit)
	Nodes    uint64        // Maximum nodes (0 = no limit)
	MoveTime time.Duration // Time for this move (0 = no limit)
	Infinite bool          // Search until stopped
	MultiPV  int           // Number of principal variations to find (0 or 1 = single best move)
}

// SearchResult contains the result of a single PV search.
type SearchResult struct {
	Move  board.Move
	Score int
	PV    []board.Move
	Depth int
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // ~2-3 ply, 500ms
	Medium                   // ~7 ply, 1s
	Hard                     // Maximum strength, 3s
)

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {Depth: 3, MoveTime: 500 * time.Millisecond},
	Medium: {Depth: 7, MoveTime: 1 * time.Second},
	Hard:   {Depth: 40, MoveTime: 3 * time.Second},
}

// Engine is the chess engine's single-threaded search driver: one
// Searcher, one transposition table, an optional opening book.
type Engine struct {
	tt       *TranspositionTable
	searcher *Searcher

	difficulty Difficulty
	book       *book.Book

	// Position history for repetition detection.
	rootPosHashes []uint64

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates a new chess engine with the given transposition table size in MB.
func NewEngine(ttSizeMB int) *Engine {
	tt := NewTranspositionTable(ttSizeMB)

	return &Engine{
		tt:         tt,
		searcher:   NewSearcher(tt),
		difficulty: Medium,
	}
}

// SetDifficulty sets the engine difficulty.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.difficulty = d
}

// SetHashSize replaces the transposition table with one of the given
// size in MB, discarding all prior search results.
func (e *Engine) SetHashSize(sizeMB int) {
	e.tt = NewTranspositionTable(sizeMB)
	e.searcher = NewSearcher(e.tt)
}

// LoadBook loads an opening book from a Polyglot file.
func (e *Engine) LoadBook(filename string) error {
	b, err := book.LoadPolyglot(filename)
	if err != nil {
		return err
	}
	e.book = b
	return nil
}

// SetBook sets the opening book.
func (e *Engine) SetBook(b *book.Book) {
	e.book = b
}

// HasBook returns true if an opening book is loaded.
func (e *Engine) HasBook() bool {
	return e.book != nil
}

// SetPositionHistory sets the position history for repetition detection.
// This should be called before Search() with hashes from the game's move history.
func (e *Engine) SetPositionHistory(hashes []uint64) {
	e.rootPosHashes = make([]uint64, len(hashes))
	copy(e.rootPosHashes, hashes)
}

// Search finds the best move for the given position using the engine's
// current difficulty setting.
func (e *Engine) Search(pos *board.Position) board.Move {
	limits := DifficultySettings[e.difficulty]
	return e.SearchWithLimits(pos, limits)
}

// SearchWithLimits finds the best move with specific search limits,
// running single-threaded iterative deepening to Depth or MoveTime.
func (e *Engine) SearchWithLimits(pos *board.Position, limits SearchLimits) board.Move {
	if e.book != nil {
		if move, ok := e.book.Probe(pos); ok {
			return move
		}
	}

	pos.SeedRepetitionHistory(e.rootPosHashes)
	move, _, _, _ := e.searchWithExclusions(pos, limits, nil)
	return move
}

// SearchWithUCILimits finds the best move using UCI time controls.
// Supports wtime/btime/winc/binc for proper tournament time management.
func (e *Engine) SearchWithUCILimits(pos *board.Position, limits UCILimits, ply int) board.Move {
	if e.book != nil {
		if move, ok := e.book.Probe(pos); ok {
			return move
		}
	}

	pos.SeedRepetitionHistory(e.rootPosHashes)

	tm := NewTimeManager()
	tm.Init(limits, pos.SideToMove, ply)

	e.searcher.Reset()
	e.tt.NewSearch()

	startTime := time.Now()
	var bestMove, lastBestMove board.Move
	var bestScore, bestDepth int
	var stabilityCount, instabilityCount int

	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	for depth := 1; depth <= maxDepth; depth++ {
		move, score := e.searcher.Search(pos, depth)
		if e.searcher.IsStopped() {
			break
		}
		if move == board.NoMove {
			break
		}

		if move == lastBestMove {
			stabilityCount++
			instabilityCount = 0
		} else {
			instabilityCount++
			stabilityCount = 0
		}
		lastBestMove = move

		bestMove, bestScore, bestDepth = move, score, depth

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    bestDepth,
				Score:    bestScore,
				Nodes:    e.searcher.Nodes(),
				Time:     time.Since(startTime),
				PV:       e.searcher.GetPV(),
				HashFull: e.tt.HashFull(),
			})
		}

		if bestScore > MateScore-100 || bestScore < -MateScore+100 {
			break
		}

		if instabilityCount >= 2 {
			tm.AdjustForInstability(instabilityCount)
		} else if stabilityCount >= 2 {
			tm.AdjustForStability(stabilityCount)
		}

		if tm.PastOptimum() && stabilityCount >= 4 {
			break
		}
		if tm.ShouldStop() {
			break
		}
		if limits.Nodes > 0 && e.searcher.Nodes() >= limits.Nodes {
			break
		}
	}

	e.searcher.Stop()
	return bestMove
}

// SearchMultiPV finds multiple best moves (principal variations) for analysis.
func (e *Engine) SearchMultiPV(pos *board.Position, limits SearchLimits) []SearchResult {
	numPV := limits.MultiPV
	if numPV <= 0 {
		numPV = 1
	}

	pos.SeedRepetitionHistory(e.rootPosHashes)

	results := make([]SearchResult, 0, numPV)
	excludedMoves := make([]board.Move, 0, numPV)

	for i := 0; i < numPV; i++ {
		move, score, pv, depth := e.searchWithExclusions(pos, limits, excludedMoves)
		if move == board.NoMove {
			break
		}

		results = append(results, SearchResult{
			Move:  move,
			Score: score,
			PV:    pv,
			Depth: depth,
		})
		excludedMoves = append(excludedMoves, move)
	}

	// Sort results by score (descending) to ensure best moves are first.
	for i := 0; i < len(results)-1; i++ {
		maxIdx := i
		for j := i + 1; j < len(results); j++ {
			if results[j].Score > results[maxIdx].Score {
				maxIdx = j
			}
		}
		if maxIdx != i {
			results[i], results[maxIdx] = results[maxIdx], results[i]
		}
	}

	return results
}

// searchWithExclusions searches for best move excluding certain moves at the root.
func (e *Engine) searchWithExclusions(pos *board.Position, limits SearchLimits, excluded []board.Move) (board.Move, int, []board.Move, int) {
	e.searcher.Reset()
	e.searcher.SetExcludedMoves(excluded)
	e.tt.NewSearch()

	startTime := time.Now()
	var bestMove board.Move
	var bestScore int
	var bestDepth int

	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	var deadline time.Time
	if limits.MoveTime > 0 {
		deadline = startTime.Add(limits.MoveTime)
	}

	for depth := 1; depth <= maxDepth; depth++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}

		move, score := e.searcher.Search(pos, depth)

		if e.searcher.IsStopped() {
			break
		}

		if move != board.NoMove {
			bestMove = move
			bestScore = score
			bestDepth = depth
		}

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    bestDepth,
				Score:    bestScore,
				Nodes:    e.searcher.Nodes(),
				Time:     time.Since(startTime),
				PV:       e.searcher.GetPV(),
				HashFull: e.tt.HashFull(),
			})
		}

		if score > MateScore-100 || score < -MateScore+100 {
			break
		}

		if !deadline.IsZero() {
			elapsed := time.Since(startTime)
			remaining := limits.MoveTime - elapsed
			if remaining < elapsed {
				break
			}
		}

		if limits.Nodes > 0 && e.searcher.Nodes() >= limits.Nodes {
			break
		}
	}

	pv := e.searcher.GetPV()
	e.searcher.SetExcludedMoves(nil)

	return bestMove, bestScore, pv, bestDepth
}

// Stop stops the current search.
func (e *Engine) Stop() {
	e.searcher.Stop()
}

// Clear clears the transposition table and move-ordering caches.
func (e *Engine) Clear() {
	e.tt.Clear()
	e.searcher.ClearOrderer()
}

// Perft performs a perft test (for debugging move generation).
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := movegen.Legal(pos)
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		pos.Make(move)
		nodes += e.Perft(pos, depth-1)
		pos.Unmake(move)
	}

	return nodes
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) int {
	return Evaluate(pos)
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score > MateScore-100 {
		mateIn := (MateScore - score + 1) / 2
		return "Mate in " + itoa(mateIn)
	}
	if score < -MateScore+100 {
		mateIn := (MateScore + score + 1) / 2
		return "Mated in " + itoa(mateIn)
	}

	// Convert centipawns to pawns
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	pawns := score / 100
	centipawns := score % 100

	return sign + itoa(pawns) + "." + itoa(centipawns)
}

// Simple integer to string (avoid fmt import)
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + itoa(-n)
	}
	s := ""
	for n > 0 {
		s = string('0'+byte(n%10)) + s
		n /= 10
	}
	return s
}
