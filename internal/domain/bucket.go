package domain

// Bucket is an escalation stage of the collection flow. Each bucket maps
// to one template category and one fixed due-date offset.
type Bucket string

const (
	BucketPreDue3d  Bucket = "pre_due_3d"
	BucketDueToday  Bucket = "due_today"
	BucketOverdue1d Bucket = "overdue_1d"
	BucketOverdue7d Bucket = "overdue_7d"
)

// Offset is the number of days between today and the due date the bucket
// targets: negative means the due date is still ahead.
func (b Bucket) Offset() int {
	switch b {
	case BucketPreDue3d:
		return -3
	case BucketDueToday:
		return 0
	case BucketOverdue1d:
		return 1
	case BucketOverdue7d:
		return 7
	}
	return 0
}

func (b Bucket) Valid() bool {
	switch b {
	case BucketPreDue3d, BucketDueToday, BucketOverdue1d, BucketOverdue7d:
		return true
	}
	return false
}

// AllBuckets lists the escalation stages in the order the automation job
// evaluates them. Debtors whose lateness falls between stages (days 2-6,
// 8 and beyond) are intentionally not contacted by this job; adding stages
// is a policy decision, not a code change here.
var AllBuckets = []Bucket{BucketPreDue3d, BucketDueToday, BucketOverdue1d, BucketOverdue7d}
