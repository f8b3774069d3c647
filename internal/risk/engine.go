package risk

import (
	"math"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Options — политики, которые в исходной постановке оставлены открытыми.
type Options struct {
	// ConvergeLinks: гонять распространение по связям до сходимости
	// вместо одного шага 70/30 за вызов.
	ConvergeLinks bool

	// RestoreOnResolve: при закрытии инцидента возвращать барьеру
	// performance_adjustment (делим обратно на коэффициент инцидента).
	// По умолчанию деградация остаётся как "шрам".
	RestoreOnResolve bool
}

// Engine — движок расчёта и каскадного пересчёта рисков. Все каскады —
// явные вызовы внутри одной транзакции, никаких хуков на сохранение:
// порядок стадий и точки отказа видны и тестируются напрямую.
type Engine struct {
	db   *gorm.DB
	log  *logrus.Logger
	opts Options
}

func New(db *gorm.DB, log *logrus.Logger, opts Options) *Engine {
	if log == nil {
		log = logrus.New()
	}
	return &Engine{db: db, log: log, opts: opts}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
