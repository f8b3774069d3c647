package models

import "gorm.io/gorm"

// Опросники критичности и уязвимости объекта. У каждого вопроса пять
// фиксированных вариантов ответа, каждый со своим баллом 1..10.

type AssetCriticalityQuestion struct {
	gorm.Model
	QuestionText string `gorm:"type:text;not null"`

	Choice1 string `gorm:"size:255"`
	Score1  int
	Choice2 string `gorm:"size:255"`
	Score2  int
	Choice3 string `gorm:"size:255"`
	Score3  int
	Choice4 string `gorm:"size:255"`
	Score4  int
	Choice5 string `gorm:"size:255"`
	Score5  int
}

// ScoreFor возвращает балл выбранного варианта; false — если такого
// варианта у вопроса нет.
func (q *AssetCriticalityQuestion) ScoreFor(choice string) (int, bool) {
	return scoreForChoice(choice,
		[5]string{q.Choice1, q.Choice2, q.Choice3, q.Choice4, q.Choice5},
		[5]int{q.Score1, q.Score2, q.Score3, q.Score4, q.Score5})
}

type AssetVulnerabilityQuestion struct {
	gorm.Model
	QuestionText string `gorm:"type:text;not null"`

	RiskTypeID uint
	RiskType   RiskType

	Choice1 string `gorm:"size:255"`
	Score1  int
	Choice2 string `gorm:"size:255"`
	Score2  int
	Choice3 string `gorm:"size:255"`
	Score3  int
	Choice4 string `gorm:"size:255"`
	Score4  int
	Choice5 string `gorm:"size:255"`
	Score5  int
}

func (q *AssetVulnerabilityQuestion) ScoreFor(choice string) (int, bool) {
	return scoreForChoice(choice,
		[5]string{q.Choice1, q.Choice2, q.Choice3, q.Choice4, q.Choice5},
		[5]int{q.Score1, q.Score2, q.Score3, q.Score4, q.Score5})
}

func scoreForChoice(choice string, choices [5]string, scores [5]int) (int, bool) {
	for i, c := range choices {
		if choice == c {
			return scores[i], true
		}
	}
	return 0, false
}

// Ответы уникальны в разрезе (объект, вопрос). SelectedScore выводится из
// выбранного варианта при сохранении; пустой ответ балла не имеет.

type AssetCriticalityAnswer struct {
	gorm.Model
	AssetID uint `gorm:"not null;uniqueIndex:idx_crit_answer_key"`
	Asset   Asset

	QuestionID uint `gorm:"not null;uniqueIndex:idx_crit_answer_key"`
	Question   AssetCriticalityQuestion

	SelectedChoice string `gorm:"size:255"`
	SelectedScore  *int
}

type AssetVulnerabilityAnswer struct {
	gorm.Model
	AssetID uint `gorm:"not null;uniqueIndex:idx_vuln_answer_key"`
	Asset   Asset

	QuestionID uint `gorm:"not null;uniqueIndex:idx_vuln_answer_key"`
	Question   AssetVulnerabilityQuestion

	SelectedChoice string `gorm:"size:255"`
	SelectedScore  *int
}
