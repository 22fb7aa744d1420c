package constants

// Rationale codes attached to a TrainingContext. They are human-auditable
// strings and part of the output contract, so they never change spelling.
const (
	RationaleNoHistory                = "no_history"
	RationaleSparseHistory            = "sparse_history"
	RationaleSufficientHistory        = "sufficient_history"
	RationaleHistorySourceUnavailable = "history_source_unavailable"
	RationaleEffortSourceUnavailable  = "effort_source_unavailable"
	RationaleProfileSourceUnavailable = "profile_source_unavailable"
	RationaleMalformedRecordsDropped  = "malformed_records_dropped"
	RationaleAgeUnknown               = "age_unknown"
	RationaleGenderUnspecified        = "gender_unspecified"
	RationaleRampDefaultFewWeeks      = "ramp_default_insufficient_weeks"
	RationaleZoneDataUnavailable      = "zone_data_unavailable"
	RationaleStartingCTLOverride      = "starting_ctl_override"
	RationaleNoEffortBests            = "no_effort_bests"
)

// Feasibility reason codes
const (
	ReasonTSSRampExceedsCap = "required_tss_ramp_exceeds_configured_cap"
	ReasonCTLRampExceedsCap = "required_ctl_ramp_exceeds_configured_cap"
	ReasonNearConfiguredCap = "near_configured_cap"
	ReasonDemandGapOpen     = "projected_fitness_below_goal_demand"
)

// Conflict codes
const (
	ConflictTSSRampExceedsCap        = "required_tss_ramp_exceeds_cap"
	ConflictCTLRampExceedsCap        = "required_ctl_ramp_exceeds_cap"
	ConflictRecoveryOverlapsNextGoal = "post_goal_recovery_overlaps_next_goal"
	ConflictRecoveryCompressesPrep   = "post_goal_recovery_compresses_next_goal_prep"
)
