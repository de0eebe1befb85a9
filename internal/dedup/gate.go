package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/Mujanati13/eco-solutions-sub001/internal/model"
	"github.com/Mujanati13/eco-solutions-sub001/internal/store"
)

// 指纹判重参数
const (
	amountTolerance   = 0.01
	fingerprintWindow = 24 * time.Hour
)

// OrderChecker 订单判重所需的查询
type OrderChecker interface {
	OrderNoExists(orderNo string) (bool, error)
	FingerprintExists(phone, customerName string, amount, tolerance float64, since time.Time) (bool, error)
}

// FileChecker 文件判重所需的查询
type FileChecker interface {
	GetProcessedFile(fileID string) (*model.ProcessedFile, error)
	ContentHashExists(hash, excludeFileID string) (bool, error)
}

// Reason 重复原因
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonOrderNo     Reason = "order_no"
	ReasonFingerprint Reason = "fingerprint"
)

// Gate 订单去重闸
// 有单号看单号；没单号才退到 phone+name+金额 的 24 小时指纹
type Gate struct {
	orders OrderChecker
	now    func() time.Time
}

// NewGate 创建去重闸
func NewGate(orders OrderChecker) *Gate {
	return &Gate{orders: orders, now: time.Now}
}

// CheckOrder 判断订单是否重复，返回重复原因
func (g *Gate) CheckOrder(o *model.Order) (Reason, error) {
	if o.OrderNo != "" {
		exists, err := g.orders.OrderNoExists(o.OrderNo)
		if err != nil {
			return ReasonNone, err
		}
		if exists {
			return ReasonOrderNo, nil
		}
		return ReasonNone, nil
	}

	since := g.now().Add(-fingerprintWindow)
	exists, err := g.orders.FingerprintExists(o.Phone, o.CustomerName, o.TotalAmount, amountTolerance, since)
	if err != nil {
		return ReasonNone, err
	}
	if exists {
		return ReasonFingerprint, nil
	}
	return ReasonNone, nil
}

// HashBytes 计算文件内容哈希
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// FileUnchanged 判断文件相对已处理记录是否无变化
// 内容哈希一致即视为未变；记录缺失或哈希不同都需要重扫
func FileUnchanged(files FileChecker, fileID, contentHash string) (bool, error) {
	f, err := files.GetProcessedFile(fileID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return f.Status == model.FileStatusCompleted && f.ContentHash == contentHash, nil
}

// DuplicateContent 判断相同内容是否已由其他文件成功导入
// 同一工作簿换个文件 ID 重新出现时整体跳过，不再逐行解析
func DuplicateContent(files FileChecker, fileID, contentHash string) (bool, error) {
	return files.ContentHashExists(contentHash, fileID)
}
