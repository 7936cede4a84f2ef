// Package runinfo парсит run-дескрипторы секвенатора (RunInfo.xml).
//
// Из документа извлекаются только структурные счётчики flowcell
// и идентификатор run — всё, что нужно для выбора compute profile
// и fan-out lane jobs. Остальное содержимое (Reads, Instrument, Date)
// игнорируется.
//
// Парсер намеренно строгий: каждое обязательное поле, которого нет
// или которое пусто, возвращает MalformedRunDescriptorError с полным
// структурным путём поля. Значений по умолчанию нет.
package runinfo
