package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"sangam-admin/internal/config"
	"sangam-admin/internal/settlement"
	"sangam-admin/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	var (
		mediatorID = flag.Int64("mediator", 0, "ID посредника для пересчета (0 = все активные посредники)")
		verbose    = flag.Bool("verbose", false, "Показать разбивку по каждой промоакции")
	)
	flag.Parse()

	// Инициализация логгера
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Ошибка инициализации логгера:", err)
	}
	defer logger.Sync()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Ошибка загрузки конфигурации", zap.Error(err))
	}

	// Подключение к базе данных
	store, err := store.NewStore(cfg, logger)
	if err != nil {
		logger.Fatal("Ошибка подключения к базе данных", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()

	if *mediatorID > 0 {
		err = recalcMediator(ctx, store, *mediatorID, cfg.Payout.RewardPerPurchase, *verbose, logger)
	} else {
		err = recalcAllMediators(ctx, store, cfg.Payout.RewardPerPurchase, *verbose, logger)
	}

	if err != nil {
		logger.Fatal("Ошибка пересчета баланса", zap.Error(err))
	}

	logger.Info("Пересчет баланса завершен успешно")
}

// recalcMediator пересчитывает и выводит доступный баланс одного посредника
func recalcMediator(ctx context.Context, store store.Store, mediatorID int64, rewardPerPurchase decimal.Decimal, verbose bool, logger *zap.Logger) error {
	mediator, err := store.Mediator().GetByID(ctx, mediatorID)
	if err != nil {
		return fmt.Errorf("посредник не найден: %w", err)
	}

	promotions, err := store.Promotion().GetByMediatorID(ctx, mediatorID)
	if err != nil {
		return fmt.Errorf("ошибка получения промоакций: %w", err)
	}

	ledger, err := store.Referral().GetLedger(ctx, mediatorID)
	if err != nil {
		return fmt.Errorf("ошибка получения реферальной сводки: %w", err)
	}

	promotionsTotal := decimal.Zero
	for _, p := range promotions {
		amount := settlement.PayableAmount(p, p.Policy)
		promotionsTotal = promotionsTotal.Add(amount)

		if verbose && amount.IsPositive() {
			fmt.Printf("  промоакция %d (%s): единиц заработано %d, к выплате %s\n",
				p.ID, p.Platform, settlement.UnitsEarned(p, p.Policy), amount.StringFixed(2))
		}
	}

	referralsTotal := settlement.ReferralPayable(ledger, rewardPerPurchase)
	total := promotionsTotal.Add(referralsTotal)

	fmt.Printf("Посредник %d (%s): промоакции %s + рефералы %s = %s\n",
		mediator.ID, mediator.FullName,
		promotionsTotal.StringFixed(2), referralsTotal.StringFixed(2), total.StringFixed(2))

	logger.Info("баланс пересчитан",
		zap.Int64("mediator_id", mediatorID),
		zap.String("promotions_total", promotionsTotal.StringFixed(2)),
		zap.String("referrals_total", referralsTotal.StringFixed(2)),
		zap.String("total", total.StringFixed(2)))

	return nil
}

// recalcAllMediators пересчитывает баланс всех активных посредников
func recalcAllMediators(ctx context.Context, store store.Store, rewardPerPurchase decimal.Decimal, verbose bool, logger *zap.Logger) error {
	mediators, err := store.Mediator().GetAllActive(ctx)
	if err != nil {
		return fmt.Errorf("ошибка получения списка посредников: %w", err)
	}

	logger.Info("начинаем пересчет для всех активных посредников", zap.Int("count", len(mediators)))

	var failed int
	for _, m := range mediators {
		if err := recalcMediator(ctx, store, m.ID, rewardPerPurchase, verbose, logger); err != nil {
			logger.Error("ошибка пересчета для посредника",
				zap.Int64("mediator_id", m.ID),
				zap.Error(err))
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("пересчет завершился с ошибками для %d посредников", failed)
	}

	return nil
}
