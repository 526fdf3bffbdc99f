package optimizer

// Console setting keys touched by the optimization programs. The host
// seeds these in its settings registry; an absent key causes the
// owning action to be skipped, never to fail the pass.
const (
	KeyShadowQuality      = "r.ShadowQuality"
	KeyAntiAliasing       = "r.AntiAliasingMethod"
	KeyTexturePoolSize    = "r.Streaming.PoolSizeMB"
	KeyViewDistanceScale  = "r.ViewDistanceScale"
	KeyPostProcessQuality = "r.PostProcessQuality"
	KeyStaticMeshLODBias  = "r.StaticMeshLODBias"
	KeyDynamicResolution  = "r.DynamicResolution"
	KeyVariableRateShade  = "r.VariableRateShading"
	KeyGPUProceduralGen   = "r.GPUProceduralGeneration"
	KeyNetCullDistance    = "net.CullDistanceScale"
	KeyNetPriorityRepl    = "net.PriorityReplication"
	KeyNetDeltaCompress   = "net.DeltaCompression"
	KeyGCInterval         = "gc.IntervalSeconds"
	KeySiegeUpdateFreq    = "siege.UpdateFrequencyHz"
	KeySiegeQueryCache    = "siege.QueryResultCache"
	KeySiegeAsyncBatching = "siege.AsyncBatchProcessing"
	KeySiegeSpatialIndex  = "siege.SpatialPartitioning"
	KeySiegePredictive    = "siege.PredictiveScheduling"
)

type settingChange struct {
	key   string
	value string
}

type catalogEntry struct {
	action  Action
	changes []settingChange
}

// conservativeProgram lists the Safe-tier actions in application order.
func conservativeProgram() []catalogEntry {
	return []catalogEntry{
		{
			action:  Action{Name: "reduce_shadow_quality", Tier: StrategySafe, Level: LevelConservative, ExpectedFPSGain: 8},
			changes: []settingChange{{KeyShadowQuality, "1"}},
		},
		{
			action:  Action{Name: "shrink_texture_pool", Tier: StrategySafe, Level: LevelConservative, ExpectedFPSGain: 2, ExpectedMemoryMB: 512},
			changes: []settingChange{{KeyTexturePoolSize, "1024"}},
		},
		{
			action:  Action{Name: "trim_view_distance", Tier: StrategySafe, Level: LevelConservative, ExpectedFPSGain: 6},
			changes: []settingChange{{KeyViewDistanceScale, "0.8"}},
		},
		{
			action:  Action{Name: "tighten_network_culling", Tier: StrategySafe, Level: LevelConservative, ExpectedFPSGain: 3},
			changes: []settingChange{{KeyNetCullDistance, "0.75"}},
		},
		{
			action:  Action{Name: "relax_gc_cadence", Tier: StrategySafe, Level: LevelConservative, ExpectedFPSGain: 2, ExpectedMemoryMB: 128},
			changes: []settingChange{{KeyGCInterval, "30"}},
		},
		{
			action:  Action{Name: "reduce_siege_update_frequency", Tier: StrategySafe, Level: LevelConservative, ExpectedFPSGain: 4},
			changes: []settingChange{{KeySiegeUpdateFreq, "10"}},
		},
		{
			action:  Action{Name: "cache_siege_queries", Tier: StrategySafe, Level: LevelConservative, ExpectedFPSGain: 3},
			changes: []settingChange{{KeySiegeQueryCache, "1"}},
		},
	}
}

// aggressiveProgram lists the Bold-tier actions applied after the Safe
// program.
func aggressiveProgram() []catalogEntry {
	return []catalogEntry{
		{
			action:  Action{Name: "force_lod_bias", Tier: StrategyBold, Level: LevelAggressive, ExpectedFPSGain: 7},
			changes: []settingChange{{KeyStaticMeshLODBias, "1"}},
		},
		{
			action:  Action{Name: "enable_dynamic_resolution", Tier: StrategyBold, Level: LevelAggressive, ExpectedFPSGain: 12},
			changes: []settingChange{{KeyDynamicResolution, "1"}},
		},
		{
			action:  Action{Name: "reduce_postprocess_quality", Tier: StrategyBold, Level: LevelAggressive, ExpectedFPSGain: 5},
			changes: []settingChange{{KeyPostProcessQuality, "1"}},
		},
		{
			action:  Action{Name: "batch_siege_processing", Tier: StrategyBold, Level: LevelAggressive, ExpectedFPSGain: 6},
			changes: []settingChange{{KeySiegeAsyncBatching, "1"}},
		},
		{
			action:  Action{Name: "partition_siege_queries", Tier: StrategyBold, Level: LevelAggressive, ExpectedFPSGain: 4},
			changes: []settingChange{{KeySiegeSpatialIndex, "1"}},
		},
		{
			action:  Action{Name: "prioritize_replication", Tier: StrategyBold, Level: LevelAggressive, ExpectedFPSGain: 3},
			changes: []settingChange{{KeyNetPriorityRepl, "1"}},
		},
		{
			action:  Action{Name: "compress_replication_deltas", Tier: StrategyBold, Level: LevelAggressive, ExpectedFPSGain: 2},
			changes: []settingChange{{KeyNetDeltaCompress, "1"}},
		},
	}
}

// experimentalProgram lists the Experimental-tier actions. They are
// gated by the experimental flag and skipped silently when it is off.
func experimentalProgram() []catalogEntry {
	return []catalogEntry{
		{
			action:  Action{Name: "variable_rate_shading", Tier: StrategyExperimental, Level: LevelAggressive, ExpectedFPSGain: 15, RequiresRestart: true},
			changes: []settingChange{{KeyVariableRateShade, "1"}},
		},
		{
			action:  Action{Name: "gpu_procedural_generation", Tier: StrategyExperimental, Level: LevelAggressive, ExpectedFPSGain: 10, ExpectedMemoryMB: 256, RequiresRestart: true},
			changes: []settingChange{{KeyGPUProceduralGen, "1"}},
		},
		{
			action:  Action{Name: "predictive_update_scheduling", Tier: StrategyExperimental, Level: LevelAggressive, ExpectedFPSGain: 8},
			changes: []settingChange{{KeySiegePredictive, "1"}},
		},
	}
}
