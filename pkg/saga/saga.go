// Package saga 实现编排式Saga
//
// 一个Saga由若干步骤组成,每个步骤有正向操作(Action)和补偿操作(Compensate)。
// 任何一步失败或超时,已执行的步骤按相反顺序补偿;补偿失败只记录日志,继续补偿剩余步骤。
//
// 使用示例(注销账号):
//
//	s := saga.NewSaga("delete_account", 10*time.Second)
//	s.AddStep("delete_cart", deleteCart, restoreCart)
//	s.AddStep("delete_history", deleteHistory, restoreHistory)
//	s.AddStep("delete_user", deleteUser, nil)
//	err := s.Execute(ctx)
package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/xiebiao/bookshelf/pkg/logger"
	"github.com/xiebiao/bookshelf/pkg/metrics"
)

// Step Saga步骤
type Step struct {
	Name       string                          // 步骤名称(用于日志)
	Action     func(ctx context.Context) error // 正向操作
	Compensate func(ctx context.Context) error // 补偿操作,可以为nil
}

// Saga 编排器
type Saga struct {
	name     string
	steps    []Step
	executed []Step        // 已执行的步骤(用于补偿)
	timeout  time.Duration // 整体超时时间,0表示不限制
}

// NewSaga 创建Saga
func NewSaga(name string, timeout time.Duration) *Saga {
	return &Saga{
		name:    name,
		steps:   make([]Step, 0),
		timeout: timeout,
	}
}

// AddStep 添加步骤
func (s *Saga) AddStep(name string, action, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, Step{
		Name:       name,
		Action:     action,
		Compensate: compensate,
	})
}

// Execute 按顺序执行所有步骤
func (s *Saga) Execute(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { metrics.RecordSaga(s.name, err, time.Since(start)) }()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	for i, step := range s.steps {
		if ctxErr := ctx.Err(); ctxErr != nil {
			// 补偿使用独立Context,避免补偿也超时
			s.compensate(context.WithoutCancel(ctx))
			return fmt.Errorf("saga[%s]超时: %w", s.name, ctxErr)
		}

		if step.Action != nil {
			if err := step.Action(ctx); err != nil {
				logger.Ctx(ctx).Warn().Err(err).
					Str("saga", s.name).Str("step", step.Name).
					Msg("saga步骤失败,开始补偿")
				s.compensate(context.WithoutCancel(ctx))
				return fmt.Errorf("步骤[%d:%s]执行失败: %w", i, step.Name, err)
			}
		}

		s.executed = append(s.executed, step)
	}

	s.executed = nil
	return nil
}

// compensate 逆序执行补偿操作
func (s *Saga) compensate(ctx context.Context) {
	for i := len(s.executed) - 1; i >= 0; i-- {
		step := s.executed[i]
		if step.Compensate == nil {
			continue
		}

		metrics.InitMetrics()
		metrics.IncCounter(metrics.SagaCompensationsTotal)

		if err := step.Compensate(ctx); err != nil {
			// 补偿失败需要人工介入,日志级别为Error便于告警
			logger.Ctx(ctx).Error().Err(err).
				Str("saga", s.name).Str("step", step.Name).
				Msg("saga补偿失败")
		}
	}

	s.executed = nil
}
