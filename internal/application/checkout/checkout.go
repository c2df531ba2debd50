// Package checkout 结算用例:把购物车整体转入购买记录并扣减库存
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/bookshelf/internal/application/event"
	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/cart"
	"github.com/xiebiao/bookshelf/internal/domain/purchase"
	"github.com/xiebiao/bookshelf/internal/domain/tx"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/logger"
	"github.com/xiebiao/bookshelf/pkg/metrics"
	"github.com/xiebiao/bookshelf/pkg/tracing"
)

// Status 结算结果状态
type Status string

const (
	StatusOK                Status = "ok"
	StatusEmpty             Status = "empty"
	StatusInsufficientStock Status = "insufficient_stock"
)

// ErrPersistence 结算过程中存储失败,整个事务已回滚
var ErrPersistence = apperrors.New(apperrors.ErrCodeDatabaseError, "结算失败,请稍后重试")

// Shortage 库存不足明细
type Shortage struct {
	BookID    uint   `json:"book_id"`
	Title     string `json:"title"`
	Needed    int    `json:"needed"`
	Available int    `json:"available"`
}

// Result 结算结果
// 空购物车和库存不足都是正常结果而不是错误,调用方据此给出提示
type Result struct {
	Status     Status     `json:"status"`
	CheckoutID string     `json:"checkout_id,omitempty"`
	MovedCount int        `json:"moved_count"`
	Shortages  []Shortage `json:"shortages,omitempty"`
}

// CheckoutUseCase 结算用例
//
// 并发控制:
//  1. 用户锁:同一用户的结算、加购、移除串行执行
//  2. 图书锁:按图书ID升序加锁,涉及同一本书的结算串行执行,不相交的结算并行
//  3. 事务内再用SELECT ... FOR UPDATE锁行,多实例部署时由数据库兜底
//
// 加锁顺序固定为"用户 → 图书(升序)",不会出现环形等待。
type CheckoutUseCase struct {
	txManager    tx.Manager
	locker       tx.Locker
	cartRepo     cart.Repository
	bookRepo     book.Repository
	purchaseRepo purchase.Repository
	publisher    event.Publisher
}

// NewCheckoutUseCase 创建结算用例
func NewCheckoutUseCase(
	txManager tx.Manager,
	locker tx.Locker,
	cartRepo cart.Repository,
	bookRepo book.Repository,
	purchaseRepo purchase.Repository,
	publisher event.Publisher,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		txManager:    txManager,
		locker:       locker,
		cartRepo:     cartRepo,
		bookRepo:     bookRepo,
		purchaseRepo: purchaseRepo,
		publisher:    publisher,
	}
}

// Execute 执行结算
//
// 要么全部成功(扣减库存、写入购买记录、清空购物车),要么没有任何修改:
//   - 购物车为空 → StatusEmpty
//   - 任意一本库存不足 → StatusInsufficientStock,返回全部不足的图书
//   - 购物车中的图书已下架 → ErrBookNotFound
//   - 存储失败 → ErrPersistence(事务回滚)
func (uc *CheckoutUseCase) Execute(ctx context.Context, userID uint) (*Result, error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "checkout", "Checkout")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", int64(userID)))

	result, quantities, err := uc.execute(ctx, userID)

	status := "error"
	if err == nil {
		status = string(result.Status)
	}
	metrics.RecordCheckout(status, movedOf(result), time.Since(start))
	span.SetAttributes(attribute.String("status", status))
	tracing.RecordError(span, err)

	log := logger.Ctx(ctx)
	if err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Msg("结算失败")
		return nil, err
	}

	log.Info().
		Uint("user_id", userID).
		Str("status", status).
		Int("moved", result.MovedCount).
		Int("shortages", len(result.Shortages)).
		Dur("elapsed", time.Since(start)).
		Msg("结算完成")

	if result.Status == StatusOK {
		span.SetAttributes(attribute.Int("moved_count", result.MovedCount))
		uc.publishCompleted(ctx, userID, result, quantities)
	}
	return result, nil
}

func (uc *CheckoutUseCase) execute(ctx context.Context, userID uint) (*Result, []cart.Line, error) {
	// 1. 用户锁
	releaseUser, err := uc.locker.Acquire(ctx, tx.UserKey(userID))
	if err != nil {
		return nil, nil, err
	}
	defer releaseUser()

	var (
		result      *Result
		lines       []cart.Line
		releaseBook = func() {}
	)
	// 图书锁在事务提交(或回滚)之后释放
	defer func() { releaseBook() }()

	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		// 2. 锁定购物车
		c, err := uc.cartRepo.LockByUserID(txCtx, userID)
		if err != nil {
			return err
		}
		if c.IsEmpty() {
			result = &Result{Status: StatusEmpty}
			return nil
		}

		// 3. 按图书汇总需要的数量
		needed := c.Quantities()
		ids := c.DistinctIDs()

		// 4. 按ID升序加图书锁,再锁行读取最新库存
		releaseBook, err = uc.locker.Acquire(txCtx, tx.BookKeys(ids)...)
		if err != nil {
			releaseBook = func() {}
			return err
		}
		locked, err := uc.bookRepo.LockByIDs(txCtx, ids)
		if err != nil {
			return err
		}
		found := make(map[uint]*book.Book, len(locked))
		for _, b := range locked {
			found[b.ID] = b
		}
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				return fmt.Errorf("%w: book_id=%d", book.ErrBookNotFound, id)
			}
		}

		// 5. 先校验全部图书,任何一本不足都不做修改
		var shortages []Shortage
		for _, id := range ids {
			b := found[id]
			if !b.HasStock(needed[id]) {
				shortages = append(shortages, Shortage{
					BookID:    id,
					Title:     b.Title,
					Needed:    needed[id],
					Available: b.Stock,
				})
			}
		}
		if len(shortages) > 0 {
			result = &Result{Status: StatusInsufficientStock, Shortages: shortages}
			return nil
		}

		// 6. 扣减库存
		for _, id := range ids {
			if err := uc.bookRepo.UpdateStock(txCtx, id, -needed[id]); err != nil {
				return err
			}
		}

		// 7. 购物车 → 购买记录(保持购物车中的顺序)
		history, err := uc.purchaseRepo.GetOrCreate(txCtx, userID)
		if err != nil {
			return err
		}
		moved := make([]*book.Book, 0, c.Len())
		for _, item := range c.Items {
			moved = append(moved, found[item.ID])
		}
		history.AddAll(moved)
		if err := uc.purchaseRepo.Save(txCtx, history); err != nil {
			return err
		}

		lines = c.Lines()
		c.Clear()
		if err := uc.cartRepo.Save(txCtx, c); err != nil {
			return err
		}

		result = &Result{
			Status:     StatusOK,
			CheckoutID: uuid.NewString(),
			MovedCount: len(moved),
		}
		return nil
	})
	if err != nil {
		return nil, nil, classify(err)
	}
	return result, lines, nil
}

// classify 业务错误和锁超时原样返回,其余存储错误统一包装为ErrPersistence
func classify(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if !appErr.IsServerError() || appErr.Code == apperrors.ErrCodeLockTimeout {
			return err
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

func (uc *CheckoutUseCase) publishCompleted(ctx context.Context, userID uint, result *Result, lines []cart.Line) {
	items := make([]event.ItemQuantity, len(lines))
	for i, l := range lines {
		items[i] = event.ItemQuantity{BookID: l.Book.ID, Quantity: l.Quantity}
	}

	evt := event.CheckoutCompleted{
		Meta:       event.NewMeta(),
		CheckoutID: result.CheckoutID,
		UserID:     userID,
		Items:      items,
		MovedCount: result.MovedCount,
	}
	// 结算已提交,发布失败只记录日志
	if err := uc.publisher.Publish(context.WithoutCancel(ctx), event.RoutingCheckoutCompleted, evt); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("checkout_id", result.CheckoutID).Msg("发布结算事件失败")
	}
}

func movedOf(r *Result) int {
	if r == nil {
		return 0
	}
	return r.MovedCount
}
