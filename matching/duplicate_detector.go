package matching

import "unicode/utf8"

// Пороговые значения правил сопоставления.
// Минимальные длины отсекают почти пустые значения, которые иначе
// совпадали бы друг с другом (обрезанные ИНН, телефоны без кода и т.п.).
const (
	// MinTaxIDLength минимальная длина нормализованного налогового номера (строго больше)
	MinTaxIDLength = 3
	// MinEmailLength минимальная длина нормализованного email (строго больше)
	MinEmailLength = 5
	// MinPhoneDigits минимальное число цифр в телефоне для правила "имя + телефон"
	MinPhoneDigits = 9
	// MinNameLength минимальная длина нормализованного имени для правила "только имя" (строго больше)
	MinNameLength = 5
	// NamePhoneSimilarityThreshold порог схожести имен для правила "имя + телефон" (строго больше)
	NamePhoneSimilarityThreshold = 0.8
	// NameOnlySimilarityThreshold порог схожести имен для правила "только имя" (строго больше)
	NameOnlySimilarityThreshold = 0.95
)

// Причины срабатывания правил
const (
	ReasonExternalID   = "внешний идентификатор совпадает"
	ReasonTaxID        = "налоговый номер совпадает"
	ReasonEmail        = "email совпадает"
	ReasonNamePhone    = "похожее название и одинаковый телефон"
	ReasonNameOnly     = "название практически совпадает"
	ReasonNotDuplicate = "совпадений среди существующих контактов не найдено"
)

// ExternalRecord входящая запись из внешней системы (биллинг, выгрузка и т.п.).
// Все поля кроме названия опциональны: пустая строка означает отсутствие значения.
// Детектор запись не изменяет.
type ExternalRecord struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	TaxID      string `json:"tax_id"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

// Contact существующий контакт CRM. ExternalID заполняется после того,
// как предыдущий импорт связал контакт с записью внешней системы.
type Contact struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	TaxID      string `json:"tax_id,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	Source     string `json:"source,omitempty"`
}

// DuplicateInfo результат одной проверки на дубликат.
// Создается заново на каждый вызов и нигде не сохраняется самим детектором.
// Инварианты: Similarity всегда в [0, 1]; для точных совпадений равна 1;
// при положительном результате заполнена ровно одна причина.
type DuplicateInfo struct {
	IsDuplicate bool     `json:"is_duplicate"`
	Reason      string   `json:"reason"`
	Contact     *Contact `json:"contact,omitempty"`
	Similarity  float64  `json:"similarity"`
}

// matchRule одно правило сопоставления: причина срабатывания и предикат.
// Предикат получает входящую запись и кандидата, возвращает схожесть и признак совпадения.
type matchRule struct {
	reason string
	// nameOnly помечает правило, которое пропускается в булевом варианте проверки
	nameOnly bool
	match    func(rec ExternalRecord, c *Contact) (float64, bool)
}

// DuplicateDetector определяет, соответствует ли входящая запись уже известному контакту.
// Правила применяются в фиксированном порядке убывания надежности с ранним выходом:
// внешний идентификатор, налоговый номер, email, похожее имя + телефон, почти точное имя.
// Для каждого правила список контактов сканируется целиком, прежде чем перейти к следующему.
type DuplicateDetector struct {
	rules []matchRule
}

// NewDuplicateDetector создает детектор со стандартным набором правил
func NewDuplicateDetector() *DuplicateDetector {
	return &DuplicateDetector{
		rules: []matchRule{
			{reason: ReasonExternalID, match: matchExternalID},
			{reason: ReasonTaxID, match: matchTaxID},
			{reason: ReasonEmail, match: matchEmail},
			{reason: ReasonNamePhone, match: matchNamePhone},
			{reason: ReasonNameOnly, nameOnly: true, match: matchNameOnly},
		},
	}
}

// Detect проверяет входящую запись против списка существующих контактов.
// Возвращает первый найденный дубликат с причиной и схожестью либо отрицательный
// результат с пояснением. Ни запись, ни контакты не изменяются; отсутствующие
// поля просто не дают сработать соответствующему правилу. Паник и ошибок нет —
// это чистое синхронное вычисление без I/O.
func (dd *DuplicateDetector) Detect(rec ExternalRecord, contacts []*Contact) DuplicateInfo {
	for _, rule := range dd.rules {
		for _, contact := range contacts {
			if contact == nil {
				continue
			}
			if similarity, ok := rule.match(rec, contact); ok {
				return DuplicateInfo{
					IsDuplicate: true,
					Reason:      rule.reason,
					Contact:     contact,
					Similarity:  similarity,
				}
			}
		}
	}

	return DuplicateInfo{
		IsDuplicate: false,
		Reason:      ReasonNotDuplicate,
	}
}

// HasDuplicate булев вариант проверки для массовых импортов и синхронизаций.
// Применяет те же правила, но без правила "только имя": при пакетной фильтрации
// полный отчет о схожести не нужен, а почти точное имя без подтверждающего поля
// дает слишком много ложных срабатываний на больших объемах.
func (dd *DuplicateDetector) HasDuplicate(rec ExternalRecord, contacts []*Contact) bool {
	for _, rule := range dd.rules {
		if rule.nameOnly {
			continue
		}
		for _, contact := range contacts {
			if contact == nil {
				continue
			}
			if _, ok := rule.match(rec, contact); ok {
				return true
			}
		}
	}
	return false
}

// matchExternalID правило 1: точное совпадение внешнего идентификатора.
// Самый надежный признак — отражает ранее подтвержденную связь.
func matchExternalID(rec ExternalRecord, c *Contact) (float64, bool) {
	if rec.ExternalID == "" || c.ExternalID == "" {
		return 0, false
	}
	if rec.ExternalID == c.ExternalID {
		return 1.0, true
	}
	return 0, false
}

// matchTaxID правило 2: точное совпадение нормализованного налогового номера
func matchTaxID(rec ExternalRecord, c *Contact) (float64, bool) {
	if rec.TaxID == "" || c.TaxID == "" {
		return 0, false
	}

	recTaxID := NormalizeTaxID(rec.TaxID)
	contactTaxID := NormalizeTaxID(c.TaxID)

	if recTaxID == contactTaxID && utf8.RuneCountInString(recTaxID) > MinTaxIDLength {
		return 1.0, true
	}
	return 0, false
}

// matchEmail правило 3: точное совпадение нормализованного email
func matchEmail(rec ExternalRecord, c *Contact) (float64, bool) {
	if rec.Email == "" || c.Email == "" {
		return 0, false
	}

	recEmail := NormalizeEmail(rec.Email)
	contactEmail := NormalizeEmail(c.Email)

	if recEmail == contactEmail && utf8.RuneCountInString(recEmail) > MinEmailLength {
		return 1.0, true
	}
	return 0, false
}

// matchNamePhone правило 4: похожее название плюс одинаковый телефон.
// Телефоны сравниваются по цифрам, короткие фрагменты не учитываются.
func matchNamePhone(rec ExternalRecord, c *Contact) (float64, bool) {
	if rec.Phone == "" || c.Phone == "" || rec.Name == "" || c.Name == "" {
		return 0, false
	}

	recPhone := NormalizePhone(rec.Phone)
	contactPhone := NormalizePhone(c.Phone)

	if recPhone != contactPhone || len(recPhone) < MinPhoneDigits {
		return 0, false
	}

	similarity := NameSimilarity(rec.Name, c.Name)
	if similarity > NamePhoneSimilarityThreshold {
		return similarity, true
	}
	return 0, false
}

// matchNameOnly правило 5: почти точное совпадение только по названию.
// Короткие имена исключаются: для распространенных коротких имен
// высокая схожесть еще ничего не значит.
func matchNameOnly(rec ExternalRecord, c *Contact) (float64, bool) {
	if rec.Name == "" || c.Name == "" {
		return 0, false
	}

	if utf8.RuneCountInString(NormalizeText(rec.Name)) <= MinNameLength {
		return 0, false
	}

	similarity := NameSimilarity(rec.Name, c.Name)
	if similarity > NameOnlySimilarityThreshold {
		return similarity, true
	}
	return 0, false
}
