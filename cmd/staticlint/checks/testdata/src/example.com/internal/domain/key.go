package domain

type MetricKey []string

func Key(parts ...string) MetricKey { return MetricKey(parts) }
