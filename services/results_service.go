package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/speechteam/tournament-signup/config"
	"github.com/speechteam/tournament-signup/models"
	"github.com/speechteam/tournament-signup/repositories"
)

// ResultsService records competitor performance and awards points per the
// configured scoring table. The thresholds are team policy carried in
// config, not derived here.
type ResultsService struct {
	scoring         config.Scoring
	transactor      repositories.Transactor
	performanceRepo repositories.PerformanceRepository
	tournamentRepo  repositories.TournamentRepository
	userRepo        repositories.UserRepository
	logger          *slog.Logger
}

func NewResultsService(
	scoring config.Scoring,
	transactor repositories.Transactor,
	performanceRepo repositories.PerformanceRepository,
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
	logger *slog.Logger,
) *ResultsService {
	return &ResultsService{
		scoring:         scoring,
		transactor:      transactor,
		performanceRepo: performanceRepo,
		tournamentRepo:  tournamentRepo,
		userRepo:        userRepo,
		logger:          logger,
	}
}

// SubmitPerformance validates the submission window, computes points and
// persists the performance plus the user's point/bid totals in one
// transaction.
func (s *ResultsService) SubmitPerformance(ctx context.Context, userID, tournamentID int, bid bool, rank int, stage models.EliminationStage) (*models.TournamentPerformance, error) {
	if rank <= 0 {
		return nil, ErrInvalidRank
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("submit performance: %w", err)
	}
	if tournament.ResultsSubmitted {
		return nil, ErrResultsClosed
	}

	if _, err := s.performanceRepo.FindByUserAndTournament(ctx, userID, tournamentID); err == nil {
		return nil, ErrPerformanceAlreadySubmitted
	} else if !errors.Is(err, repositories.ErrPerformanceNotFound) {
		return nil, fmt.Errorf("submit performance: %w", err)
	}

	hadPriorBid, err := s.performanceRepo.HasPriorBid(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("submit performance: %w", err)
	}

	points := s.calculatePoints(bid, hadPriorBid, rank, stage)

	performance := &models.TournamentPerformance{
		UserID:       userID,
		TournamentID: tournamentID,
		Points:       points,
		Bid:          bid,
		Rank:         rank,
		Stage:        stage,
	}

	bidIncrement := 0
	if bid {
		bidIncrement = 1
	}

	txErr := s.transactor.InTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.performanceRepo.Create(ctx, exec, performance); err != nil {
			return err
		}
		return s.userRepo.AddPointsAndBids(ctx, exec, userID, points, bidIncrement)
	})
	if txErr != nil {
		if errors.Is(txErr, repositories.ErrPerformanceConflict) {
			return nil, ErrPerformanceAlreadySubmitted
		}
		s.logger.Error("performance submission rolled back",
			slog.Int("user_id", userID),
			slog.Int("tournament_id", tournamentID),
			slog.Any("error", txErr),
		)
		return nil, fmt.Errorf("submit performance: %w", txErr)
	}

	s.logger.Info("performance recorded",
		slog.Int("user_id", userID),
		slog.Int("tournament_id", tournamentID),
		slog.Int("points", points),
	)
	return performance, nil
}

func (s *ResultsService) calculatePoints(bid, hadPriorBid bool, rank int, stage models.EliminationStage) int {
	points := 0
	if bid {
		if hadPriorBid {
			points += s.scoring.RepeatBidPoints
		} else {
			points += s.scoring.FirstBidPoints
		}
	}
	if stage != models.StageNone {
		points += s.scoring.StageBase + int(stage)
	}
	points += s.scoring.RankPoints(rank)
	points += s.scoring.ParticipationPoints
	return points
}
