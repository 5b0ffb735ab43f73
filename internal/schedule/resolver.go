package schedule

import (
	"clinic-booking/internal/configs"
)

// Resolve picks the schedule in force from the most recent exception and config rows
// of a building, either of which may be nil.
//
// An exception wins over the config, which wins over the defaults. A closed exception
// ends the resolution. An exception without a complete time window does not override
// the hours, so resolution continues with the config.
func Resolve(exception *Exception, config *Config, defaults configs.ScheduleDefaults) EffectiveSchedule {
	if exception != nil {
		if exception.IsClosed {
			return EffectiveSchedule{Closed: true, Source: FromException}
		}
		if exception.TimeFrom != nil && exception.TimeTo != nil {
			return EffectiveSchedule{
				Window: Window{
					TimeFrom:    *exception.TimeFrom,
					TimeTo:      *exception.TimeTo,
					SlotMinutes: slotMinutes(exception.SlotMinutes, defaults),
				},
				Source: FromException,
			}
		}
	}
	if config != nil {
		return EffectiveSchedule{
			Window: Window{
				TimeFrom:    config.TimeFrom,
				TimeTo:      config.TimeTo,
				SlotMinutes: slotMinutes(config.SlotMinutes, defaults),
			},
			Source: FromConfig,
		}
	}
	return EffectiveSchedule{
		Window: Window{
			TimeFrom:    defaults.TimeFrom,
			TimeTo:      defaults.TimeTo,
			SlotMinutes: defaults.SlotMinutes,
		},
		Source: FromDefault,
	}
}

func slotMinutes(value *int, defaults configs.ScheduleDefaults) int {
	if value == nil || *value <= 0 {
		return defaults.SlotMinutes
	}
	return *value
}
