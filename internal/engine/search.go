package engine

import (
	"math"
	"sync/atomic"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/movegen"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128

	// MateBound is the threshold past which a score is treated as a
	// proven mate rather than an ordinary material/positional score.
	// Pruning techniques that reason about "normal" evals disable
	// themselves once either side's score crosses it.
	MateBound = MateScore - MaxPly

	futilityMargin   = 85
	seeCutoffCapture = -70
	seeCutoffQuiet   = -20
	deltaMargin      = 200
)

// lmrTable[depth][moveCount] is the late-move reduction in plies,
// precomputed the way berserk derives it from log(depth)*log(moves).
var lmrTable [64][64]int

// lmpTable[improving][depth] is the move-count cutoff past which a
// quiet move is skipped without search at low depth.
var lmpTable [2][64]int

func init() {
	for depth := 1; depth < 64; depth++ {
		for moves := 1; moves < 64; moves++ {
			lmrTable[depth][moves] = int(0.6 + math.Log(float64(depth))*math.Log(1.2*float64(moves))/2.5)
		}
		lmpTable[0][depth] = (3 + depth*depth) / 2
		lmpTable[1][depth] = 3 + depth*depth
	}
}

// PVTable stores the principal variation.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// Searcher performs the alpha-beta search.
type Searcher struct {
	pos     *board.Position
	tt      *TranspositionTable
	orderer *MoveOrderer

	// Search state
	nodes    uint64
	stopFlag atomic.Bool

	// evals[ply] is the static eval used by improving/RFP/NMP, indexed
	// the same way pv is: by recursion depth along the current branch.
	evals [MaxPly]int

	// lastScore carries the previous iterative-deepening depth's score
	// into the next depth's aspiration window. Reset clears it so
	// shallow depths (which skip aspiration entirely) aren't affected.
	lastScore int

	excludedRoot []board.Move

	// corrHist nudges the static eval toward what search has actually
	// found for similar positions, the way Stockfish's correction
	// history does.
	corrHist *CorrectionHistory

	// PV tracking
	pv PVTable
}

// NewSearcher creates a new searcher.
func NewSearcher(tt *TranspositionTable) *Searcher {
	return &Searcher{
		tt:       tt,
		orderer:  NewMoveOrderer(),
		corrHist: NewCorrectionHistory(),
	}
}

// Stop signals the search to stop.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// IsStopped reports whether the search has been signalled to stop.
func (s *Searcher) IsStopped() bool {
	return s.stopFlag.Load()
}

// Reset resets the searcher for a brand new iterative-deepening run.
// It is called once before the first depth, not once per depth: the
// move-ordering tables and aspiration history are meant to persist and
// improve across depths within one run.
func (s *Searcher) Reset() {
	s.stopFlag.Store(false)
	s.nodes = 0
	s.lastScore = 0
	s.orderer.Clear()
	s.corrHist.Age()
}

// ClearOrderer clears move-ordering tables without touching node/stop state.
func (s *Searcher) ClearOrderer() {
	s.orderer.Clear()
}

// SetExcludedMoves excludes the given moves from consideration at the root.
func (s *Searcher) SetExcludedMoves(excluded []board.Move) {
	s.excludedRoot = excluded
}

func (s *Searcher) rootExcluded(m board.Move) bool {
	for _, e := range s.excludedRoot {
		if e == m {
			return true
		}
	}
	return false
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Search performs an aspiration-windowed search at the given depth,
// narrowing the window around the previous depth's score the way
// berserk's iterative-deepening driver does.
func (s *Searcher) Search(pos *board.Position, depth int) (board.Move, int) {
	s.pos = pos.Copy()
	s.nodes = 0

	alpha, beta := -Infinity, Infinity
	delta := Infinity
	if depth >= 5 {
		delta = 10
		alpha = max(s.lastScore-delta, -Infinity)
		beta = min(s.lastScore+delta, Infinity)
	}

	var score int
	for {
		score = s.negamax(depth, 0, alpha, beta, board.NoMove, board.NoMove)

		if s.stopFlag.Load() {
			break
		}

		if score <= alpha {
			beta = (alpha + beta) / 2
			alpha = max(score-delta, -Infinity)
		} else if score >= beta {
			beta = min(score+delta, Infinity)
		} else {
			break
		}

		delta += delta / 2
		if alpha <= -Infinity && beta >= Infinity {
			break
		}
	}

	s.lastScore = score

	var bestMove board.Move
	if s.pv.length[0] > 0 {
		bestMove = s.pv.moves[0][0]
	}

	return bestMove, score
}

// negamax implements negamax with alpha-beta pruning plus the usual
// complement of selective-search techniques: reverse futility, null
// move, late move pruning, SEE pruning, singular extension, and
// PVS+LMR. prevMove is the move made to reach this node (used for
// counter-move ordering and null-move gating); excluded is the move
// singular extension's verification search is asked to ignore at this
// exact node (board.NoMove outside of that verification).
func (s *Searcher) negamax(depth, ply int, alpha, beta int, prevMove, excluded board.Move) int {
	if s.nodes&4095 == 0 && s.stopFlag.Load() {
		return 0
	}
	s.nodes++
	s.pv.length[ply] = ply

	isRoot := ply == 0
	isPV := beta-alpha > 1

	if !isRoot {
		if s.isDraw() {
			return 0
		}
		// Mate distance pruning: a shorter mate can never beat one
		// already guaranteed by an ancestor node.
		alpha = max(alpha, -MateScore+ply)
		beta = min(beta, MateScore-ply-1)
		if alpha >= beta {
			return alpha
		}
	}

	if ply >= MaxPly-1 {
		return Evaluate(s.pos)
	}

	var ttEntry TTEntry
	found := false
	if excluded == board.NoMove {
		ttEntry, found = s.tt.Probe(s.pos.Hash)
	}
	var ttMove board.Move
	if found {
		ttMove = ttEntry.BestMove
		if !isRoot && int(ttEntry.Depth) >= depth {
			score := AdjustScoreFromTT(ttEntry.Score, ply)
			switch ttEntry.Flag {
			case TTExact:
				return score
			case TTLowerBound:
				if score > alpha {
					alpha = score
				}
			case TTUpperBound:
				if score < beta {
					beta = score
				}
			}
			if alpha >= beta {
				return score
			}
		}
	}

	if depth <= 0 {
		return s.quiescence(ply, alpha, beta)
	}

	inCheck := s.pos.InCheck()

	rawEval := Evaluate(s.pos)
	eval := rawEval
	if found {
		eval = ttEntry.Eval
		ttScore := AdjustScoreFromTT(ttEntry.Score, ply)
		if (ttEntry.Flag == TTLowerBound && ttScore > eval) ||
			(ttEntry.Flag == TTUpperBound && ttScore < eval) {
			eval = ttScore
		}
	}
	if !inCheck {
		eval += s.corrHist.Get(s.pos)
	}
	s.evals[ply] = eval
	improving := ply >= 2 && !inCheck && s.evals[ply] > s.evals[ply-2]

	canPrune := !isPV && !inCheck && excluded == board.NoMove

	if canPrune {
		// Reverse futility pruning: if even a generous margin below
		// our static eval still clears beta, assume a real search
		// would too and cut.
		if depth <= 6 && eval < MateBound && eval-futilityMargin*depth >= beta {
			return eval
		}

		// Null move pruning: if passing the move still keeps us above
		// beta, this position's advantage doesn't depend on tempo.
		if depth >= 3 && prevMove != board.NoMove && eval >= beta && s.pos.HasNonPawnMaterial() {
			r := 3 + depth/6 + min((eval-beta)/200, 3)
			undo := s.pos.MakeNullMove()
			nullScore := -s.negamax(depth-1-r, ply+1, -beta, -beta+1, board.NoMove, board.NoMove)
			s.pos.UnmakeNullMove(undo)

			if s.stopFlag.Load() {
				return 0
			}
			if nullScore >= beta {
				if nullScore > MateBound {
					nullScore = beta
				}
				return nullScore
			}
		}
	}

	moves := movegen.Legal(s.pos)
	if moves.Len() == 0 {
		if excluded != board.NoMove {
			// Singular-extension verification search with only one
			// legal move excluded: treat as "no alternative found".
			return alpha
		}
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	counterMove := s.orderer.GetCounterMove(prevMove, s.pos)
	s.orderer.ScoreMovesWithCounter(s.pos, moves, ply, ttMove, prevMove)

	bestScore := -Infinity
	bestMove := board.NoMove
	flag := TTUpperBound
	movesSearched := 0

	triedQuiets := make([]board.Move, 0, moves.Len())
	type triedCapture struct {
		move     board.Move
		attacker board.Piece
		victim   board.PieceType
	}
	triedCaptures := make([]triedCapture, 0, moves.Len())

	for i := 0; i < moves.Len(); i++ {
		move := moves.PickMove(i)
		if move == excluded || (isRoot && s.rootExcluded(move)) {
			continue
		}

		isQuiet := move.IsQuiet()

		if canPrune && bestScore > -MateBound && depth <= 8 && movesSearched > 0 {
			improvingIdx := 0
			if improving {
				improvingIdx = 1
			}
			if isQuiet && movesSearched >= lmpTable[improvingIdx][depth] {
				continue
			}

			seeThreshold := seeCutoffCapture * depth
			if isQuiet {
				seeThreshold = seeCutoffQuiet * depth * depth
			}
			if SEE(s.pos, move) < seeThreshold {
				continue
			}
		}

		// Singular extension: if the TT move is the only move that
		// beats a lowered bound, it is forced and worth searching
		// deeper.
		extension := 0
		if depth >= 8 && excluded == board.NoMove && !isRoot && move == ttMove && found &&
			int(ttEntry.Depth) >= depth-3 && ttEntry.Flag == TTLowerBound &&
			abs(AdjustScoreFromTT(ttEntry.Score, ply)) < MateBound {
			sBeta := max(AdjustScoreFromTT(ttEntry.Score, ply)-depth*2, -Infinity)
			sDepth := depth/2 - 1
			sScore := s.negamax(sDepth, ply, sBeta-1, sBeta, prevMove, move)
			if sScore < sBeta {
				extension = 1
			} else if sBeta >= beta {
				return sBeta
			}
		}

		s.pos.Make(move)
		newDepth := depth - 1 + extension

		var score int
		if movesSearched == 0 {
			score = -s.negamax(newDepth, ply+1, -beta, -alpha, move, board.NoMove)
		} else {
			reduction := 0
			if depth >= 3 && movesSearched >= 3 && isQuiet {
				d, mv := depth, movesSearched
				if d > 63 {
					d = 63
				}
				if mv > 63 {
					mv = 63
				}
				reduction = lmrTable[d][mv]
				if !isPV {
					reduction++
				}
				if !improving {
					reduction++
				}
				if move == counterMove {
					reduction -= 2
				} else if hist := s.orderer.GetHistoryScore(move); hist > 149 {
					tier := (hist - 149) / 50
					if tier > 2 {
						tier = 2
					}
					reduction -= tier
				}
				if reduction < 0 {
					reduction = 0
				}
			}

			reducedDepth := newDepth - reduction
			if reducedDepth < 1 {
				reducedDepth = 1
			}

			score = -s.negamax(reducedDepth, ply+1, -alpha-1, -alpha, move, board.NoMove)
			if score > alpha && reducedDepth < newDepth {
				score = -s.negamax(newDepth, ply+1, -alpha-1, -alpha, move, board.NoMove)
			}
			if score > alpha && score < beta {
				score = -s.negamax(newDepth, ply+1, -beta, -alpha, move, board.NoMove)
			}
		}
		s.pos.Unmake(move)
		movesSearched++

		if s.stopFlag.Load() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = move

			if score > alpha {
				alpha = score
				flag = TTExact

				s.pv.moves[ply][ply] = move
				for j := ply + 1; j < s.pv.length[ply+1]; j++ {
					s.pv.moves[ply][j] = s.pv.moves[ply+1][j]
				}
				s.pv.length[ply] = s.pv.length[ply+1]
			}
		}

		if score >= beta {
			s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(score, ply), rawEval, TTLowerBound, bestMove)
			if !inCheck && excluded == board.NoMove && (bestMove.IsQuiet()) {
				s.corrHist.Update(s.pos, score, rawEval, depth)
			}

			if isQuiet {
				s.orderer.UpdateKillers(move, ply)
				s.orderer.UpdateHistory(move, depth, true)
				s.orderer.UpdateCounterMove(prevMove, move, s.pos)
				if prevMove != board.NoMove {
					prevPiece := s.pos.PieceAt(prevMove.To())
					movePiece := move.Piece()
					s.orderer.UpdateCountermoveHistory(prevMove, move, prevPiece, movePiece, depth, true)
				}
				for _, q := range triedQuiets {
					s.orderer.UpdateHistory(q, depth, false)
				}
			} else {
				attacker := move.Piece()
				victim := move.Captured().Type()
				s.orderer.UpdateCaptureHistory(attacker, move.To(), victim, depth, true)
			}
			for _, c := range triedCaptures {
				s.orderer.UpdateCaptureHistory(c.attacker, c.move.To(), c.victim, depth, false)
			}

			return score
		}

		if isQuiet {
			triedQuiets = append(triedQuiets, move)
		} else {
			triedCaptures = append(triedCaptures, triedCapture{move, move.Piece(), move.Captured().Type()})
		}
	}

	if movesSearched == 0 {
		// Every legal move was the excluded one (singular-extension
		// verification search at a position with exactly one move).
		return alpha
	}

	s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(bestScore, ply), rawEval, flag, bestMove)
	if !inCheck && excluded == board.NoMove && (bestMove == board.NoMove || bestMove.IsQuiet()) {
		s.corrHist.Update(s.pos, bestScore, rawEval, depth)
	}

	return bestScore
}

// quiescence searches only captures (and, while in check, every legal
// reply) to avoid the horizon effect at the end of the main search.
func (s *Searcher) quiescence(ply int, alpha, beta int) int {
	const maxQuiescencePly = 32
	if ply >= MaxPly || ply > maxQuiescencePly {
		return Evaluate(s.pos)
	}
	if s.stopFlag.Load() {
		return 0
	}
	s.nodes++

	ttEntry, found := s.tt.Probe(s.pos.Hash)
	if found {
		score := AdjustScoreFromTT(ttEntry.Score, ply)
		switch ttEntry.Flag {
		case TTExact:
			return score
		case TTLowerBound:
			if score >= beta {
				return score
			}
		case TTUpperBound:
			if score <= alpha {
				return score
			}
		}
	}

	inCheck := s.pos.InCheck()

	var standPat int
	if found {
		standPat = ttEntry.Eval
	} else {
		standPat = Evaluate(s.pos)
	}

	if !inCheck {
		if standPat >= beta {
			return standPat
		}
		if standPat > alpha {
			alpha = standPat
		}
		if standPat+QueenValue < alpha {
			return alpha
		}
	}

	var moves *board.MoveList
	if inCheck {
		moves = movegen.Legal(s.pos)
	} else {
		moves = movegen.LegalCaptures(s.pos)
	}
	s.orderer.ScoreMoves(s.pos, moves, ply, board.NoMove)

	bestScore := standPat
	if inCheck {
		bestScore = -Infinity
	}
	bestMove := board.NoMove
	flag := TTUpperBound

	for i := 0; i < moves.Len(); i++ {
		move := moves.PickMove(i)

		if !inCheck {
			// Under-promotions add nothing a queen promotion doesn't
			// already cover in a capture-only search.
			if move.IsPromotion() && move.Promotion() != board.Queen {
				continue
			}

			var captureValue int
			if move.IsEnPassant() {
				captureValue = PawnValue
			} else if move.Captured() != board.NoPiece {
				captureValue = pieceValues[move.Captured().Type()]
			}
			if move.IsPromotion() {
				captureValue += QueenValue - PawnValue
			}
			if standPat+captureValue+deltaMargin < alpha {
				continue
			}

			if SEE(s.pos, move) < 0 {
				continue
			}
		}

		s.pos.Make(move)
		score := -s.quiescence(ply+1, -beta, -alpha)
		s.pos.Unmake(move)

		if score > bestScore {
			bestScore = score
			bestMove = move
		}

		if score >= beta {
			s.tt.Store(s.pos.Hash, 0, AdjustScoreToTT(score, ply), standPat, TTLowerBound, bestMove)
			return score
		}
		if score > alpha {
			alpha = score
			flag = TTExact
		}
	}

	if inCheck && moves.Len() == 0 {
		return -MateScore + ply
	}

	s.tt.Store(s.pos.Hash, 0, AdjustScoreToTT(bestScore, ply), standPat, flag, bestMove)
	return bestScore
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// isDraw checks for draw by repetition, the 50-move rule, or insufficient material.
func (s *Searcher) isDraw() bool {
	if s.pos.HalfMoveClock >= 100 {
		return true
	}
	if movegen.IsInsufficientMaterial(s.pos) {
		return true
	}
	if s.pos.Repeats(1) {
		return true
	}
	return false
}

// GetPV returns the principal variation from the last search.
func (s *Searcher) GetPV() []board.Move {
	pv := make([]board.Move, s.pv.length[0])
	for i := 0; i < s.pv.length[0]; i++ {
		pv[i] = s.pv.moves[0][i]
	}
	return pv
}
