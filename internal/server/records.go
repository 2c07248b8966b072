package server

import (
	"ad-rewards-go/internal/models"
)

func toUserRecord(u *models.User) models.UserRecord {
	return models.UserRecord{
		Id:           u.Id,
		Name:         u.Name.String,
		Email:        u.Email.String,
		Role:         u.Role,
		IsBlocked:    u.IsBlocked,
		BlockReason:  u.BlockReason.String,
		IsVpnUser:    u.IsVpnUser,
		FraudScore:   u.FraudScore,
		CreatedAt:    u.CreatedAt,
		LastSignedIn: u.LastSignedIn,
	}
}

func toAdminUserRecords(users []models.UserWithPoints) []models.AdminUserRecord {
	records := make([]models.AdminUserRecord, 0, len(users))
	for i := range users {
		records = append(records, models.AdminUserRecord{
			UserRecord:     toUserRecord(&users[i].User),
			Points:         users[i].Points,
			TotalEarned:    users[i].TotalEarned,
			TotalWithdrawn: users[i].TotalWithdrawn,
			AdViewCount:    users[i].AdViewCount,
		})
	}
	return records
}

func toWithdrawalRecord(w *models.WithdrawalRequest) models.WithdrawalRecord {
	record := models.WithdrawalRecord{
		Id:            w.Id,
		UserId:        w.UserId,
		Points:        w.Points,
		AmountUsd:     w.AmountUsd,
		Method:        w.Method,
		MethodDetails: w.MethodDetails,
		Status:        w.Status,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
	if w.ProcessedAt.Valid {
		processedAt := w.ProcessedAt.Time
		record.ProcessedAt = &processedAt
	}
	return record
}

func toWithdrawalRecords(requests []models.WithdrawalRequest) []models.WithdrawalRecord {
	records := make([]models.WithdrawalRecord, 0, len(requests))
	for i := range requests {
		records = append(records, toWithdrawalRecord(&requests[i]))
	}
	return records
}

func toReviewRecords(requests []models.PendingWithdrawal) []models.WithdrawalRecord {
	records := make([]models.WithdrawalRecord, 0, len(requests))
	for i := range requests {
		record := toWithdrawalRecord(&requests[i].WithdrawalRequest)
		record.UserName = requests[i].UserName.String
		record.UserEmail = requests[i].UserEmail.String
		records = append(records, record)
	}
	return records
}

func toTransactionRecords(history []models.PointTransaction) []models.TransactionRecord {
	records := make([]models.TransactionRecord, 0, len(history))
	for _, tx := range history {
		records = append(records, models.TransactionRecord{
			Id:           tx.Id,
			Type:         tx.Type,
			Amount:       tx.Amount,
			PointsBefore: tx.PointsBefore,
			PointsAfter:  tx.PointsAfter,
			Reference:    tx.Reference,
			CreatedAt:    tx.CreatedAt,
		})
	}
	return records
}

func toAdRecords(ads []models.Ad) []models.AdRecord {
	records := make([]models.AdRecord, 0, len(ads))
	for _, ad := range ads {
		records = append(records, models.AdRecord{
			Id:             ad.Id,
			Title:          ad.Title,
			Description:    ad.Description,
			ImageUrl:       ad.ImageUrl,
			VideoUrl:       ad.VideoUrl,
			AdvertiserName: ad.AdvertiserName,
			RewardPoints:   ad.RewardPoints,
			Duration:       ad.Duration,
			TargetCountry:  ad.TargetCountry,
		})
	}
	return records
}

func toDriftRecords(drift []models.AccountDrift) []models.DriftRecord {
	records := make([]models.DriftRecord, 0, len(drift))
	for _, d := range drift {
		records = append(records, models.DriftRecord{
			UserId:         d.UserId,
			Points:         d.Points,
			Expected:       d.Expected(),
			TotalEarned:    d.TotalEarned,
			TotalWithdrawn: d.TotalWithdrawn,
		})
	}
	return records
}
