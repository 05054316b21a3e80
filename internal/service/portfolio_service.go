package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/apperrors"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/metrics"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/model"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// PortfolioSettings are the accounting defaults of a PortfolioService.
type PortfolioSettings struct {
	DefaultID    string
	InitialCash  decimal.Decimal
	RiskFreeRate float64 // annual, as a fraction
	// SnapshotOnTrade records a performance snapshot after every executed trade.
	SnapshotOnTrade bool
	// RefreshConcurrency bounds the concurrent price lookups of a refresh.
	RefreshConcurrency int
}

// PortfolioService is the portfolio accountant. It owns the cash balance,
// executes orders through the PositionManager and derives valuations and
// performance metrics from the snapshot history.
//
// Every mutation of a portfolio runs under that portfolio's lock and, for
// orders, inside one SQL transaction. Price lookups happen before the lock is taken.
type PortfolioService struct {
	db              *sql.DB
	portfolioRepo   *repository.PortfolioRepository
	positionRepo    *repository.PositionRepository
	transactionRepo *repository.TransactionRepository
	realizedRepo    *repository.RealizedGainLossRepository
	snapshotRepo    *repository.SnapshotRepository
	positions       *PositionManager
	oracle          PriceOracle
	settings        PortfolioSettings
	locks           *keyedMutex
	log             zerolog.Logger
	now             func() time.Time
}

// NewPortfolioService creates a new PortfolioService with the provided dependencies.
func NewPortfolioService(
	db *sql.DB,
	portfolioRepo *repository.PortfolioRepository,
	positionRepo *repository.PositionRepository,
	transactionRepo *repository.TransactionRepository,
	realizedRepo *repository.RealizedGainLossRepository,
	snapshotRepo *repository.SnapshotRepository,
	oracle PriceOracle,
	settings PortfolioSettings,
	log zerolog.Logger,
) *PortfolioService {
	if settings.DefaultID == "" {
		settings.DefaultID = "default"
	}
	if !settings.InitialCash.IsPositive() {
		settings.InitialCash = decimal.NewFromInt(100000)
	}
	if settings.RefreshConcurrency <= 0 {
		settings.RefreshConcurrency = 4
	}

	return &PortfolioService{
		db:              db,
		portfolioRepo:   portfolioRepo,
		positionRepo:    positionRepo,
		transactionRepo: transactionRepo,
		realizedRepo:    realizedRepo,
		snapshotRepo:    snapshotRepo,
		positions:       NewPositionManager(positionRepo),
		oracle:          oracle,
		settings:        settings,
		locks:           newKeyedMutex(),
		log:             log.With().Str("component", "portfolio_service").Logger(),
		now:             time.Now,
	}
}

// portfolioID resolves an empty ID to the default portfolio.
func (s *PortfolioService) portfolioID(id string) string {
	if id = strings.TrimSpace(id); id == "" {
		return s.settings.DefaultID
	}
	return id
}

// lock acquires the mutation lock of a portfolio.
func (s *PortfolioService) lock(portfolioID string) func() {
	return s.locks.Lock(portfolioID)
}

// GetOrCreatePortfolio returns the portfolio with the given ID, creating it with
// the default initial cash when it does not exist. Repeated calls return the same portfolio.
func (s *PortfolioService) GetOrCreatePortfolio(ctx context.Context, portfolioID string) (model.Portfolio, error) {
	portfolioID = s.portfolioID(portfolioID)

	unlock := s.lock(portfolioID)
	defer unlock()

	return s.getOrCreate(ctx, s.portfolioRepo, portfolioID)
}

func (s *PortfolioService) getOrCreate(ctx context.Context, repo *repository.PortfolioRepository, portfolioID string) (model.Portfolio, error) {
	p, err := repo.GetPortfolio(ctx, portfolioID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, apperrors.ErrPortfolioNotFound) {
		return model.Portfolio{}, err
	}

	now := s.now().UTC()
	p = model.Portfolio{
		ID:          portfolioID,
		InitialCash: s.settings.InitialCash,
		CurrentCash: s.settings.InitialCash,
		TotalValue:  s.settings.InitialCash,
		CreatedAt:   now,
		LastUpdated: now,
	}
	if err := repo.InsertPortfolio(ctx, &p); err != nil {
		return model.Portfolio{}, err
	}

	s.log.Info().
		Str("portfolio_id", portfolioID).
		Str("initial_cash", p.InitialCash.String()).
		Msg("created portfolio")

	return repo.GetPortfolio(ctx, portfolioID)
}

// RefreshPrices updates the current price of every open position of a portfolio.
// Lookups run concurrently. A failed lookup is logged and leaves the stale price in place.
func (s *PortfolioService) RefreshPrices(ctx context.Context, portfolioID string) error {
	portfolioID = s.portfolioID(portfolioID)

	positions, err := s.positionRepo.GetPositions(ctx, portfolioID)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	prices := make(map[string]decimal.Decimal, len(positions))

	var g errgroup.Group
	g.SetLimit(s.settings.RefreshConcurrency)
	for _, pos := range positions {
		if !pos.IsOpen() {
			continue
		}
		g.Go(func() error {
			price, err := s.oracle.CurrentPrice(ctx, pos.Ticker)
			if err != nil {
				s.log.Warn().Err(err).
					Str("portfolio_id", portfolioID).
					Str("ticker", pos.Ticker).
					Msg("keeping stale price")
				return nil
			}
			mu.Lock()
			prices[pos.Ticker] = price
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(prices) == 0 {
		return nil
	}

	unlock := s.lock(portfolioID)
	defer unlock()

	at := s.now().UTC()
	for ticker, price := range prices {
		err := s.positionRepo.UpdateCurrentPrice(ctx, portfolioID, ticker, price, at)
		if err != nil && !errors.Is(err, apperrors.ErrNoPosition) {
			return err
		}
	}

	return nil
}

// TotalValue returns cash plus the market value of all positions, valued at
// their current price or, when unknown, their average price.
func (s *PortfolioService) TotalValue(ctx context.Context, portfolioID string) (decimal.Decimal, error) {
	portfolioID = s.portfolioID(portfolioID)

	p, err := s.portfolioRepo.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return decimal.Zero, err
	}
	positions, err := s.positionRepo.GetPositions(ctx, portfolioID)
	if err != nil {
		return decimal.Zero, err
	}

	return totalValue(p.CurrentCash, positions), nil
}

func totalValue(cash decimal.Decimal, positions []model.Position) decimal.Decimal {
	total := cash
	for _, pos := range positions {
		if pos.IsOpen() {
			total = total.Add(pos.MarketValue())
		}
	}
	return total
}

// normalizeOrder validates an order and fills in the default portfolio.
func (s *PortfolioService) normalizeOrder(order model.TradeOrder) (model.TradeOrder, error) {
	order.PortfolioID = s.portfolioID(order.PortfolioID)
	order.Ticker = strings.ToUpper(strings.TrimSpace(order.Ticker))

	if order.Ticker == "" {
		return order, apperrors.Reject(apperrors.ErrValidation, "Ticker is required")
	}
	if !order.Quantity.IsPositive() {
		return order, apperrors.Reject(apperrors.ErrValidation, "Quantity must be positive")
	}
	if order.Price.Valid && order.Price.Decimal.IsNegative() {
		return order, apperrors.Reject(apperrors.ErrValidation, "Price cannot be negative")
	}
	return order, nil
}

// BuyAsset buys order.Quantity shares of order.Ticker. When the order carries
// no price the oracle is asked for one. A buy costing more than the available
// cash is rejected without any change.
func (s *PortfolioService) BuyAsset(ctx context.Context, order model.TradeOrder) (model.TradeResult, error) {
	order, err := s.normalizeOrder(order)
	if err != nil {
		return model.TradeResult{}, s.afterTrade(ctx, model.ActionBuy, order, model.TradeResult{}, err)
	}

	if !order.Price.Valid {
		price, err := s.oracle.CurrentPrice(ctx, order.Ticker)
		if err != nil {
			return model.TradeResult{}, s.afterTrade(ctx, model.ActionBuy, order, model.TradeResult{}, err)
		}
		order.Price = decimal.NewNullDecimal(price)
	}

	unlock := s.lock(order.PortfolioID)
	result, err := s.executeBuy(ctx, order)
	unlock()

	return result, s.afterTrade(ctx, model.ActionBuy, order, result, err)
}

// executeBuy runs a priced buy in one SQL transaction. The caller holds the portfolio lock.
func (s *PortfolioService) executeBuy(ctx context.Context, order model.TradeOrder) (model.TradeResult, error) {
	price := order.Price.Decimal
	cost := order.Quantity.Mul(price)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.TradeResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	portfolioRepo := s.portfolioRepo.WithTx(tx)
	portfolio, err := s.getOrCreate(ctx, portfolioRepo, order.PortfolioID)
	if err != nil {
		return model.TradeResult{}, err
	}

	if cost.GreaterThan(portfolio.CurrentCash) {
		return model.TradeResult{}, apperrors.Reject(apperrors.ErrInsufficientCash,
			"Insufficient cash. Required: $%s, Available: $%s",
			cost.StringFixed(2), portfolio.CurrentCash.StringFixed(2))
	}

	pos, err := s.positions.Buy(ctx, tx, order.PortfolioID, order.Ticker, order.Quantity, price)
	if err != nil {
		return model.TradeResult{}, err
	}

	cash := portfolio.CurrentCash.Sub(cost)
	txn, err := s.settle(ctx, tx, order, model.ActionBuy, cash, cost)
	if err != nil {
		return model.TradeResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.TradeResult{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return model.TradeResult{
		TransactionID: txn.ID,
		Action:        model.ActionBuy,
		Message:       fmt.Sprintf("Bought %s %s at $%s", order.Quantity.String(), order.Ticker, price.StringFixed(2)),
		Ticker:        order.Ticker,
		Quantity:      order.Quantity,
		Price:         price,
		RemainingCash: cash,
		Position:      &pos,
	}, nil
}

// SellAsset sells order.Quantity shares of order.Ticker. When the order carries
// no price the oracle is asked for one, falling back to the average entry price.
func (s *PortfolioService) SellAsset(ctx context.Context, order model.TradeOrder) (model.TradeResult, error) {
	order, err := s.normalizeOrder(order)
	if err != nil {
		return model.TradeResult{}, s.afterTrade(ctx, model.ActionSell, order, model.TradeResult{}, err)
	}

	if !order.Price.Valid {
		pos, err := s.positionRepo.GetPosition(ctx, order.PortfolioID, order.Ticker)
		if errors.Is(err, apperrors.ErrNoPosition) || (err == nil && !pos.IsOpen()) {
			err = apperrors.Reject(apperrors.ErrNoPosition, "No position found for %s", order.Ticker)
		}
		if err != nil {
			return model.TradeResult{}, s.afterTrade(ctx, model.ActionSell, order, model.TradeResult{}, err)
		}

		price, err := s.oracle.CurrentPrice(ctx, order.Ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", order.Ticker).Msg("selling at average price")
			price = pos.AveragePrice
		}
		order.Price = decimal.NewNullDecimal(price)
	}

	unlock := s.lock(order.PortfolioID)
	result, err := s.executeSell(ctx, order)
	unlock()

	return result, s.afterTrade(ctx, model.ActionSell, order, result, err)
}

// executeSell runs a priced sell in one SQL transaction. The caller holds the portfolio lock.
func (s *PortfolioService) executeSell(ctx context.Context, order model.TradeOrder) (model.TradeResult, error) {
	price := order.Price.Decimal
	proceeds := order.Quantity.Mul(price)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.TradeResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	portfolioRepo := s.portfolioRepo.WithTx(tx)
	portfolio, err := s.getOrCreate(ctx, portfolioRepo, order.PortfolioID)
	if err != nil {
		return model.TradeResult{}, err
	}

	pos, costBasis, err := s.positions.Sell(ctx, tx, order.PortfolioID, order.Ticker, order.Quantity, price)
	if err != nil {
		return model.TradeResult{}, err
	}

	cash := portfolio.CurrentCash.Add(proceeds)
	txn, err := s.settle(ctx, tx, order, model.ActionSell, cash, proceeds)
	if err != nil {
		return model.TradeResult{}, err
	}

	gain := proceeds.Sub(costBasis)
	err = s.realizedRepo.WithTx(tx).InsertRealizedGainLoss(ctx, &model.RealizedGainLoss{
		ID:               uuid.New().String(),
		PortfolioID:      order.PortfolioID,
		Ticker:           order.Ticker,
		TransactionID:    txn.ID,
		SharesSold:       order.Quantity,
		CostBasis:        costBasis,
		SaleProceeds:     proceeds,
		RealizedGainLoss: gain,
		CreatedAt:        txn.Timestamp,
	})
	if err != nil {
		return model.TradeResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.TradeResult{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	result := model.TradeResult{
		TransactionID:    txn.ID,
		Action:           model.ActionSell,
		Message:          fmt.Sprintf("Sold %s %s at $%s", order.Quantity.String(), order.Ticker, price.StringFixed(2)),
		Ticker:           order.Ticker,
		Quantity:         order.Quantity,
		Price:            price,
		RemainingCash:    cash,
		RealizedGainLoss: decimal.NewNullDecimal(gain),
	}
	if pos.IsOpen() {
		result.Position = &pos
	}
	return result, nil
}

// settle stores the new cash balance and total value and appends the transaction record.
func (s *PortfolioService) settle(ctx context.Context, tx *sql.Tx, order model.TradeOrder, action string, cash, amount decimal.Decimal) (model.Transaction, error) {
	positions, err := s.positionRepo.WithTx(tx).GetPositions(ctx, order.PortfolioID)
	if err != nil {
		return model.Transaction{}, err
	}

	now := s.now().UTC()
	if err := s.portfolioRepo.WithTx(tx).UpdateCash(ctx, order.PortfolioID, cash, totalValue(cash, positions), now); err != nil {
		return model.Transaction{}, err
	}

	txn := model.Transaction{
		ID:          uuid.New().String(),
		PortfolioID: order.PortfolioID,
		Ticker:      order.Ticker,
		Action:      action,
		Quantity:    order.Quantity,
		Price:       order.Price.Decimal,
		TotalValue:  amount,
		Timestamp:   now,
		Reason:      order.Reason,
		ForecastID:  order.ForecastID,
	}
	if err := s.transactionRepo.WithTx(tx).InsertTransaction(ctx, &txn); err != nil {
		return model.Transaction{}, err
	}

	return txn, nil
}

// afterTrade records metrics and logs for an order outcome and, when configured,
// snapshots the portfolio after an executed trade. Rejections are returned
// unchanged; other failures are wrapped in ErrFailedToExecuteOrder.
func (s *PortfolioService) afterTrade(ctx context.Context, action string, order model.TradeOrder, result model.TradeResult, err error) error {
	if err != nil {
		if apperrors.IsBusinessRule(err) {
			metrics.TradesRejected.WithLabelValues(action, rejectionReason(err)).Inc()
			s.log.Info().
				Str("portfolio_id", order.PortfolioID).
				Str("ticker", order.Ticker).
				Str("action", action).
				Str("reason", err.Error()).
				Msg("order rejected")
		} else {
			s.log.Error().Err(err).
				Str("portfolio_id", order.PortfolioID).
				Str("ticker", order.Ticker).
				Str("action", action).
				Msg("order failed")
			return fmt.Errorf("%w: %w", apperrors.ErrFailedToExecuteOrder, err)
		}
		return err
	}

	metrics.TradesExecuted.WithLabelValues(action).Inc()
	metrics.TradeValue.WithLabelValues(action).Observe(result.Quantity.Mul(result.Price).InexactFloat64())
	s.log.Info().
		Str("portfolio_id", order.PortfolioID).
		Str("transaction_id", result.TransactionID).
		Str("ticker", result.Ticker).
		Str("action", action).
		Str("quantity", result.Quantity.String()).
		Str("price", result.Price.String()).
		Str("remaining_cash", result.RemainingCash.StringFixed(2)).
		Msg("order executed")

	if s.settings.SnapshotOnTrade {
		if _, err := s.RecordSnapshot(ctx, order.PortfolioID); err != nil {
			s.log.Warn().Err(err).Str("portfolio_id", order.PortfolioID).Msg("snapshot after trade failed")
		}
	}
	return nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInsufficientCash):
		return "insufficient_cash"
	case errors.Is(err, apperrors.ErrInsufficientShares):
		return "insufficient_shares"
	case errors.Is(err, apperrors.ErrNoPosition):
		return "no_position"
	case errors.Is(err, apperrors.ErrPriceUnavailable):
		return "price_unavailable"
	default:
		return "validation"
	}
}

// GetPositions returns the open positions of a portfolio with their current
// valuation. Prices are refreshed first on a best-effort basis.
func (s *PortfolioService) GetPositions(ctx context.Context, portfolioID string) ([]model.PositionValuation, error) {
	portfolioID = s.portfolioID(portfolioID)

	if err := s.RefreshPrices(ctx, portfolioID); err != nil {
		s.log.Warn().Err(err).Str("portfolio_id", portfolioID).Msg("price refresh failed")
	}

	positions, err := s.positionRepo.GetPositions(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrievePositions, err)
	}

	return openValuations(positions), nil
}

func openValuations(positions []model.Position) []model.PositionValuation {
	valuations := []model.PositionValuation{}
	for _, pos := range positions {
		if pos.IsOpen() {
			valuations = append(valuations, pos.Valuation())
		}
	}
	return valuations
}

// GetPortfolioIDs returns the IDs of every known portfolio.
func (s *PortfolioService) GetPortfolioIDs(ctx context.Context) ([]string, error) {
	return s.portfolioRepo.GetPortfolioIDs(ctx)
}

// GetTransactions returns the most recent transactions of a portfolio, newest first.
func (s *PortfolioService) GetTransactions(ctx context.Context, portfolioID string, limit int) ([]model.Transaction, error) {
	return s.transactionRepo.GetTransactions(ctx, s.portfolioID(portfolioID), limit)
}

// GetPortfolioSummary values a portfolio and computes its performance metrics
// over the most recent snapshots. It does not record a snapshot.
func (s *PortfolioService) GetPortfolioSummary(ctx context.Context, portfolioID string) (model.PortfolioSummary, error) {
	portfolioID = s.portfolioID(portfolioID)

	if _, err := s.GetOrCreatePortfolio(ctx, portfolioID); err != nil {
		return model.PortfolioSummary{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToGetPortfolioSummary, err)
	}
	if err := s.RefreshPrices(ctx, portfolioID); err != nil {
		s.log.Warn().Err(err).Str("portfolio_id", portfolioID).Msg("price refresh failed")
	}

	unlock := s.lock(portfolioID)
	defer unlock()

	portfolio, err := s.portfolioRepo.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return model.PortfolioSummary{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToGetPortfolioSummary, err)
	}
	positions, err := s.positionRepo.GetPositions(ctx, portfolioID)
	if err != nil {
		return model.PortfolioSummary{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToGetPortfolioSummary, err)
	}
	snapshots, err := s.snapshotRepo.GetRecentSnapshots(ctx, portfolioID, DefaultMetricsWindow)
	if err != nil {
		return model.PortfolioSummary{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToGetPortfolioSummary, err)
	}
	realized, err := s.realizedRepo.GetTotalRealizedGainLoss(ctx, portfolioID)
	if err != nil {
		return model.PortfolioSummary{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToGetPortfolioSummary, err)
	}

	return s.buildSummary(portfolio, positions, snapshots, realized), nil
}

// RecordSnapshot appends the current valuation to the performance history,
// evicting the oldest entries beyond the retention limit, and stores the
// recomputed metrics on the portfolio.
func (s *PortfolioService) RecordSnapshot(ctx context.Context, portfolioID string) (model.PortfolioSummary, error) {
	portfolioID = s.portfolioID(portfolioID)

	if err := s.RefreshPrices(ctx, portfolioID); err != nil {
		s.log.Warn().Err(err).Str("portfolio_id", portfolioID).Msg("price refresh failed")
	}

	unlock := s.lock(portfolioID)
	defer unlock()

	summary, err := s.recordSnapshot(ctx, portfolioID)
	if err != nil {
		return model.PortfolioSummary{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToRecordSnapshot, err)
	}

	metrics.SnapshotsRecorded.Inc()
	s.log.Debug().
		Str("portfolio_id", portfolioID).
		Str("total_value", summary.TotalValue.StringFixed(2)).
		Msg("recorded performance snapshot")

	return summary, nil
}

func (s *PortfolioService) recordSnapshot(ctx context.Context, portfolioID string) (model.PortfolioSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.PortfolioSummary{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	portfolioRepo := s.portfolioRepo.WithTx(tx)
	snapshotRepo := s.snapshotRepo.WithTx(tx)

	portfolio, err := s.getOrCreate(ctx, portfolioRepo, portfolioID)
	if err != nil {
		return model.PortfolioSummary{}, err
	}
	positions, err := s.positionRepo.WithTx(tx).GetPositions(ctx, portfolioID)
	if err != nil {
		return model.PortfolioSummary{}, err
	}
	realized, err := s.realizedRepo.WithTx(tx).GetTotalRealizedGainLoss(ctx, portfolioID)
	if err != nil {
		return model.PortfolioSummary{}, err
	}

	now := s.now().UTC()
	current := s.buildSummary(portfolio, positions, nil, realized)
	snapshot := model.PerformanceSnapshot{
		ID:             uuid.New().String(),
		PortfolioID:    portfolioID,
		Date:           now,
		TotalValue:     current.TotalValue.InexactFloat64(),
		Cash:           current.CurrentCash.InexactFloat64(),
		PositionsValue: current.PositionsValue.InexactFloat64(),
		TotalReturn:    current.TotalReturn,
	}
	if err := snapshotRepo.AppendSnapshot(ctx, &snapshot, model.MaxPerformanceHistory); err != nil {
		return model.PortfolioSummary{}, err
	}

	snapshots, err := snapshotRepo.GetRecentSnapshots(ctx, portfolioID, DefaultMetricsWindow)
	if err != nil {
		return model.PortfolioSummary{}, err
	}

	summary := s.buildSummary(portfolio, positions, snapshots, realized)
	summary.LastUpdated = now
	err = portfolioRepo.UpdateValuation(ctx, portfolioID, summary.TotalValue, summary.TotalReturn, summary.Metrics, now)
	if err != nil {
		return model.PortfolioSummary{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.PortfolioSummary{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return summary, nil
}

// buildSummary values a portfolio. snapshots is the metrics window, oldest first.
func (s *PortfolioService) buildSummary(
	portfolio model.Portfolio,
	positions []model.Position,
	snapshots []model.PerformanceSnapshot,
	realized decimal.Decimal,
) model.PortfolioSummary {
	cash := portfolio.CurrentCash
	total := totalValue(cash, positions)
	valuations := openValuations(positions)

	summary := model.PortfolioSummary{
		PortfolioID:             portfolio.ID,
		InitialCash:             portfolio.InitialCash,
		CurrentCash:             cash,
		TotalValue:              total,
		PositionsValue:          total.Sub(cash),
		Metrics:                 performanceMetrics(snapshots, s.settings.RiskFreeRate),
		TotalRealizedGainLoss:   realized,
		TotalUnrealizedGainLoss: decimal.Zero,
		Positions:               valuations,
		Allocation:              []model.Allocation{},
		LastUpdated:             portfolio.LastUpdated,
	}

	if portfolio.InitialCash.IsPositive() {
		summary.TotalReturn = total.Sub(portfolio.InitialCash).
			Div(portfolio.InitialCash).
			Mul(decimal.NewFromInt(100)).
			InexactFloat64()
	}

	for _, v := range valuations {
		summary.TotalUnrealizedGainLoss = summary.TotalUnrealizedGainLoss.Add(v.PnL)
		summary.Allocation = append(summary.Allocation, model.Allocation{
			Name:  v.Ticker,
			Value: percentOf(v.CurrentValue, total),
		})
	}
	if cash.IsPositive() {
		summary.Allocation = append(summary.Allocation, model.Allocation{
			Name:  "Cash",
			Value: percentOf(cash, total),
		})
	}

	return summary
}

func percentOf(part, total decimal.Decimal) float64 {
	if !total.IsPositive() {
		return 0
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// GetPerformanceHistory returns the most recent days snapshots of a portfolio,
// oldest first. days defaults to 30 and is capped at the retention limit.
func (s *PortfolioService) GetPerformanceHistory(ctx context.Context, portfolioID string, days int) ([]model.PerformanceSnapshot, error) {
	if days <= 0 {
		days = DefaultMetricsWindow
	}
	if days > model.MaxPerformanceHistory {
		days = model.MaxPerformanceHistory
	}

	snapshots, err := s.snapshotRepo.GetRecentSnapshots(ctx, s.portfolioID(portfolioID), days)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveHistory, err)
	}
	return snapshots, nil
}

// Hold records a decision to do nothing. No state changes.
func (s *PortfolioService) Hold(_ context.Context, portfolioID, ticker, reason string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return "", apperrors.Reject(apperrors.ErrValidation, "Ticker is required")
	}
	if reason == "" {
		reason = "user_manual"
	}

	s.log.Info().
		Str("portfolio_id", s.portfolioID(portfolioID)).
		Str("ticker", ticker).
		Str("action", model.ActionHold).
		Str("reason", reason).
		Msg("holding position")

	return fmt.Sprintf("Holding position for %s", ticker), nil
}
