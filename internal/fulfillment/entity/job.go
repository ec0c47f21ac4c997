package entity

import "time"

// ManufacturerJob 制造商作业（与生产记录1:1），持有内部漏斗状态
type ManufacturerJob struct {
	ID             string `json:"id" gorm:"primaryKey;size:32"`
	RecordID       string `json:"record_id" gorm:"size:32;uniqueIndex;not null"`
	ManufacturerID string `json:"manufacturer_id" gorm:"size:32;not null;index"`
	FunnelStatus   string `json:"funnel_status" gorm:"size:30;default:intake_pending"`
	PublicStatus   string `json:"public_status" gorm:"size:30;default:awaiting_confirmation"`

	// 规格字段
	PrintMethod      string     `json:"print_method" gorm:"size:50"` // screen/dtf/sublimation/embroidery
	SampleRequired   bool       `json:"sample_required" gorm:"default:true"`
	SpecsLockedAt    *time.Time `json:"specs_locked_at"`
	SampleDeadline   *time.Time `json:"sample_deadline"`
	ExpectedShipDate *time.Time `json:"expected_ship_date"`
	ShippedAt        *time.Time `json:"shipped_at"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Notes     string    `json:"notes" gorm:"type:text"`

	// 关联
	Record       *ManufacturingRecord `json:"record,omitempty" gorm:"foreignKey:RecordID"`
	Manufacturer *Manufacturer        `json:"manufacturer,omitempty" gorm:"foreignKey:ManufacturerID"`
}

func (ManufacturerJob) TableName() string {
	return "manufacturer_jobs"
}

// 漏斗状态（制造商门户内部状态）
const (
	FunnelIntakePending           = "intake_pending"
	FunnelSpecsLockReview         = "specs_lock_review"
	FunnelSpecsLocked             = "specs_locked"
	FunnelMaterialsReserved       = "materials_reserved"
	FunnelSamplesInProgress       = "samples_in_progress"
	FunnelSamplesAwaitingApproval = "samples_awaiting_approval"
	FunnelSamplesApproved         = "samples_approved"
	FunnelSamplesRevise           = "samples_revise"
	FunnelBulkCutting             = "bulk_cutting"
	FunnelBulkPrintEmbSublim      = "bulk_print_emb_sublim"
	FunnelBulkStitching           = "bulk_stitching"
	FunnelBulkQC                  = "bulk_qc"
	FunnelPackingComplete         = "packing_complete"
	FunnelHandedToCarrier         = "handed_to_carrier"
	FunnelDeliveredConfirmed      = "delivered_confirmed"
)

// FunnelStateInfo 漏斗状态元数据
type FunnelStateInfo struct {
	Status       string `json:"status"`
	Label        string `json:"label"`
	Color        string `json:"color"`
	PublicStatus string `json:"public_status"`
}

// FunnelStates 漏斗状态有序目录：展示顺序、标签、颜色、公开状态映射
// 公开状态映射是唯一事实来源，任何状态写路径都从这里推导公开状态
var FunnelStates = []FunnelStateInfo{
	{FunnelIntakePending, "接单待确认", "#9CA3AF", PublicStatusAwaitingConfirmation},
	{FunnelSpecsLockReview, "规格锁定评审", "#9CA3AF", PublicStatusAwaitingConfirmation},
	{FunnelSpecsLocked, "规格已锁定", "#60A5FA", PublicStatusConfirmed},
	{FunnelMaterialsReserved, "物料已备", "#60A5FA", PublicStatusConfirmed},
	{FunnelSamplesInProgress, "样衣制作中", "#FBBF24", PublicStatusConfirmed},
	{FunnelSamplesAwaitingApproval, "样衣待确认", "#FBBF24", PublicStatusConfirmed},
	{FunnelSamplesApproved, "样衣已确认", "#34D399", PublicStatusConfirmed},
	{FunnelSamplesRevise, "样衣返修", "#F87171", PublicStatusConfirmed},
	{FunnelBulkCutting, "大货裁剪", "#818CF8", PublicStatusCuttingSewing},
	{FunnelBulkPrintEmbSublim, "大货印绣/热升华", "#818CF8", PublicStatusPrinting},
	{FunnelBulkStitching, "大货车缝", "#818CF8", PublicStatusCuttingSewing},
	{FunnelBulkQC, "大货质检", "#A78BFA", PublicStatusFinalPacking},
	{FunnelPackingComplete, "包装完成", "#A78BFA", PublicStatusFinalPacking},
	{FunnelHandedToCarrier, "已交承运商", "#2DD4BF", PublicStatusShipped},
	{FunnelDeliveredConfirmed, "送达确认", "#10B981", PublicStatusCompleted},
}

// ValidJobTransitions 合法的漏斗状态流转
// 主线为线性前进；samples_awaiting_approval分叉到通过/返修，返修回到样衣制作
var ValidJobTransitions = map[string][]string{
	FunnelIntakePending:           {FunnelSpecsLockReview},
	FunnelSpecsLockReview:         {FunnelSpecsLocked},
	FunnelSpecsLocked:             {FunnelMaterialsReserved},
	FunnelMaterialsReserved:       {FunnelSamplesInProgress},
	FunnelSamplesInProgress:       {FunnelSamplesAwaitingApproval},
	FunnelSamplesAwaitingApproval: {FunnelSamplesApproved, FunnelSamplesRevise},
	FunnelSamplesApproved:         {FunnelBulkCutting},
	FunnelSamplesRevise:           {FunnelSamplesInProgress},
	FunnelBulkCutting:             {FunnelBulkPrintEmbSublim},
	FunnelBulkPrintEmbSublim:      {FunnelBulkStitching},
	FunnelBulkStitching:           {FunnelBulkQC},
	FunnelBulkQC:                  {FunnelPackingComplete},
	FunnelPackingComplete:         {FunnelHandedToCarrier},
	FunnelHandedToCarrier:         {FunnelDeliveredConfirmed},
	FunnelDeliveredConfirmed:      {}, // 终态
}

// IsFunnelStatus 是否已知漏斗状态
func IsFunnelStatus(status string) bool {
	_, ok := ValidJobTransitions[status]
	return ok
}

// IsValidFunnelTransition 漏斗状态流转是否合法
// 同状态视为幂等空操作，始终允许；其余按流转表判定
func IsValidFunnelTransition(current, requested string) bool {
	if !IsFunnelStatus(current) || !IsFunnelStatus(requested) {
		return false
	}
	if current == requested {
		return true
	}
	for _, next := range ValidJobTransitions[current] {
		if next == requested {
			return true
		}
	}
	return false
}

// PublicStatusFor 漏斗状态对应的公开状态
func PublicStatusFor(funnelStatus string) string {
	for _, s := range FunnelStates {
		if s.Status == funnelStatus {
			return s.PublicStatus
		}
	}
	return ""
}
