package services

// このパッケージの統計処理は以下のファイルに分かれています：
//
// - statistics_core.go: StatisticsService構造体、サマリー（Summary Facts）の算出、推奨文の生成
// - statistics_math.go: 平均・中央値・最頻値・分位点などの数学的ユーティリティ
// - statistics_anomaly.go: IQRルールによる外れ値検知
// - statistics_ranking.go: 商品別・国別の売上ランキング
// - statistics_report.go: サマリーのテキスト整形
//
// 各ファイルはStatisticsServiceのメソッドまたはパッケージ内部の関数として実装されています。
