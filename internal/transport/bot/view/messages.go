package view

const StartMessage = `👋 <b>Deal feed admin</b>

/status - последний пересчёт ленты
/refresh - поставить пересчёт в очередь
/policy - квоты источников
/allocation [size] - как поделятся слоты`

const (
	StatusNeverRefreshed = "⏳ Лента ещё не пересчитывалась с момента запуска"
	StatusTemplate       = `📊 <b>Последний пересчёт</b>

🆔 <code>%s</code>
🕒 %s (%s)
📦 Сделок: %d
🗂 Категорий: %d

%s`

	RefreshQueued     = "✅ Пересчёт поставлен в очередь: <code>%s</code>"
	RefreshInProgress = "⚠️ Пересчёт уже идёт"
	RefreshFailed     = "❌ Не удалось поставить пересчёт: %v"

	PolicyEmpty    = "📋 Квоты не заданы, источники делят ленту по наличию"
	PolicyHeader   = "📋 <b>Квоты источников</b>\n\n"
	PolicyQuota    = "• <code>%s</code> min %.0f%% max %s\n"
	PolicyGroup    = "• группа <b>%s</b> (%s) min %.0f%% max %s\n"
	PolicyGroupsTo = "\n<b>Группы</b>\n"

	AllocationHeader       = "🧮 <b>Распределение</b> (%d слотов)\n\n"
	AllocationLine         = "• <code>%s</code>: %d\n"
	AllocationInvalidSize  = "❌ Использование: /allocation <code>size</code>, size >= 0"
	AllocationFailed       = "❌ Не удалось посчитать распределение: %v"
	AllocationNothingFound = "📭 Нет сделок для распределения"
)
